package upload

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// KeyGenerator produces the object key sent with each upload
type KeyGenerator interface {
	GenerateKey() string
}

// TimestampKeys generates keys of the form <unix seconds><0..99>.
// Two uploads in the same second collide with probability 1/100; use
// UUIDKeys when uploads run concurrently.
type TimestampKeys struct {
	Now    func() time.Time
	Random func(n int) int
}

// NewTimestampKeys returns a TimestampKeys using the wall clock and math/rand
func NewTimestampKeys() *TimestampKeys {
	return &TimestampKeys{
		Now:    time.Now,
		Random: rand.Intn,
	}
}

func (g *TimestampKeys) GenerateKey() string {
	return strconv.FormatInt(g.Now().Unix(), 10) + strconv.Itoa(g.Random(100))
}

// UUIDKeys generates random UUIDv4 keys, optionally under a prefix
type UUIDKeys struct {
	Prefix string
}

func NewUUIDKeys() *UUIDKeys {
	return &UUIDKeys{}
}

func (g *UUIDKeys) GenerateKey() string {
	return g.Prefix + uuid.NewString()
}

// KeyGeneratorFunc adapts a function to KeyGenerator
type KeyGeneratorFunc func() string

func (f KeyGeneratorFunc) GenerateKey() string {
	return f()
}
