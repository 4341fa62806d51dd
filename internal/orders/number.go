package orders

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Alphabet sans caractères ambigus (pas de 0/O ni 1/I/L) : le numéro de
// commande est la seule référence que le client dicte au support.
const numberAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// NewOrderNumber génère un numéro lisible du type MH-20260831-7KQ2MF.
// L'unicité n'est pas garantie ici : l'appelant réserve le numéro en base et
// regénère en cas de collision.
func NewOrderNumber(now time.Time) string {
	suffix := make([]byte, 6)
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand ne doit jamais échouer ; secours horodaté
		return fmt.Sprintf("MH-%s-%d", now.Format("20060102"), now.UnixNano()%1000000)
	}
	for i, b := range buf {
		suffix[i] = numberAlphabet[int(b)%len(numberAlphabet)]
	}
	return fmt.Sprintf("MH-%s-%s", now.Format("20060102"), suffix)
}
