package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/Elisee98/markethub-sub001/internal/pricing"
)

func Load() {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
}

// TaxRateBps retourne le taux de TVA en points de base (1800 = 18%).
func TaxRateBps() int64 {
	return envInt64("TAX_RATE_BPS", 1800)
}

// ShippingRule construit la règle de frais de port depuis l'environnement.
// SHIPPING_RULE: "flat" (défaut), "free_above" ou "per_vendor".
func ShippingRule() pricing.ShippingRule {
	flat := envInt64("SHIPPING_FLAT_CENTS", 1000)

	switch os.Getenv("SHIPPING_RULE") {
	case "free_above":
		return pricing.FreeAboveThreshold{
			Cents:          flat,
			ThresholdCents: envInt64("SHIPPING_FREE_THRESHOLD_CENTS", 50000),
		}
	case "per_vendor":
		return pricing.PerVendorFlat{CentsPerVendor: flat}
	default:
		return pricing.FlatRate{Cents: flat}
	}
}

func envInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("⚠️ Valeur invalide pour %s (%q), utilisation de %d", key, raw, fallback)
		return fallback
	}
	return v
}
