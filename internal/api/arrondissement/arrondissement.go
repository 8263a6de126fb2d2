// Package arrondissement maps between numeric arrondissement codes, their
// display labels and postal codes.
package arrondissement

import (
	"fmt"
	"regexp"
	"strconv"
)

const (
	MinCode = 1
	MaxCode = 20

	// DefaultPostalCode is used when a label carries no usable code.
	DefaultPostalCode = "75001"
)

var labels = [MaxCode]string{
	"1st — Louvre",
	"2nd — Bourse",
	"3rd — Le Marais (Temple)",
	"4th — Hôtel-de-Ville (Le Marais, Île Saint-Louis)",
	"5th — Panthéon (Quartier Latin)",
	"6th — Luxembourg (Saint-Germain-des-Prés)",
	"7th — Palais-Bourbon (Tour Eiffel, Invalides)",
	"8th — Élysée (Champs-Élysées, Madeleine)",
	"9th — Opéra (Pigalle Sud)",
	"10th — Entrepôt (Canal Saint-Martin)",
	"11th — Popincourt (Oberkampf, Bastille)",
	"12th — Reuilly (Bercy, Daumesnil)",
	"13th — Gobelins (Butte-aux-Cailles, Chinatown)",
	"14th — Observatoire (Montparnasse)",
	"15th — Vaugirard",
	"16th — Passy (Trocadéro, Auteuil)",
	"17th — Batignolles-Monceau",
	"18th — Montmartre (Butte-Montmartre)",
	"19th — Buttes-Chaumont (La Villette)",
	"20th — Ménilmontant (Belleville, Père-Lachaise)",
}

var leadingNumber = regexp.MustCompile(`^(\d+)`)

// ValidCode reports whether code is one of the twenty arrondissements.
func ValidCode(code int) bool {
	return code >= MinCode && code <= MaxCode
}

// CodeToLabel returns the display label for an arrondissement code.
func CodeToLabel(code int) (string, bool) {
	if !ValidCode(code) {
		return "", false
	}
	return labels[code-1], true
}

// LabelToCode parses the leading number of a label such as "18th — Montmartre".
func LabelToCode(label string) (int, bool) {
	m := leadingNumber.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil || !ValidCode(code) {
		return 0, false
	}
	return code, true
}

// PostalCode derives the 750xx postal code from a label, falling back to
// DefaultPostalCode.
func PostalCode(label string) string {
	code, ok := LabelToCode(label)
	if !ok {
		return DefaultPostalCode
	}
	return fmt.Sprintf("750%02d", code)
}

// Labels lists every label in code order.
func Labels() []string {
	out := make([]string, len(labels))
	copy(out, labels[:])
	return out
}

// LabelPtr is CodeToLabel for callers that model "unknown" as nil.
func LabelPtr(code int) *string {
	label, ok := CodeToLabel(code)
	if !ok {
		return nil
	}
	return &label
}
