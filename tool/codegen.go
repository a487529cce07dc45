package tool

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand"

	"github.com/google/uuid"
)

// SessionCodeLength is the digit count of rendezvous codes. Six digits keeps
// them readable over voice; collision handling is the registry's job.
const SessionCodeLength = 6

func GenerateRandomUUID() string {
	return uuid.New().String()
}

// GenerateSessionCode returns a random 6-digit numeric code ("000000"-"999999").
// Callers must re-roll on collision with a live session.
func GenerateSessionCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand only fails when the platform entropy source is broken
		return fmt.Sprintf("%06d", mrand.Intn(1_000_000))
	}
	return fmt.Sprintf("%06d", n.Int64())
}

var adjectives = []string{
	"Adorable",
	"Bright",
	"Clever",
	"Cool",
	"Cunning",
	"Determined",
	"Energetic",
	"Fast",
	"Fresh",
	"Gorgeous",
	"Kind",
	"Lovely",
	"Mystic",
	"Neat",
	"Patient",
	"Powerful",
	"Secret",
	"Smart",
	"Solid",
	"Strategic",
	"Strong",
	"Tidy",
	"Wise",
}

var fruits = []string{
	"Apple",
	"Avocado",
	"Banana",
	"Blueberry",
	"Cherry",
	"Coconut",
	"Grape",
	"Lemon",
	"Mango",
	"Melon",
	"Orange",
	"Papaya",
	"Peach",
	"Pear",
	"Pineapple",
	"Pumpkin",
	"Raspberry",
	"Strawberry",
	"Tomato",
}

// NameGenerator returns a friendly nickname like "Mystic Papaya".
func NameGenerator() string {
	adjective := adjectives[mrand.Intn(len(adjectives))]
	fruit := fruits[mrand.Intn(len(fruits))]
	return fmt.Sprintf("%s %s", adjective, fruit)
}
