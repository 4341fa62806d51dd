package utils

import "fmt"

// FormatCents formate un montant en centimes pour l'affichage (ex: 24600 → "246,00 €").
// Tous les montants du moteur sont des entiers en centimes, jamais des flottants.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d €", sign, cents/100, cents%100)
}
