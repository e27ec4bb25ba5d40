package utils

import (
	"math/rand"
	"strings"
	"sync"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const upperCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	randMu        sync.Mutex
	randGenerator = rand.New(rand.NewSource(time.Now().UnixNano()))
)

func GenerateRandomString(length int) string {
	return randomFrom(charset, length)
}

// GenerateReferenceCode returns codes like "PAY7K2M9QX" that survive being typed into a bank transfer note.
func GenerateReferenceCode(prefix string, length int) string {
	return strings.ToUpper(prefix) + randomFrom(upperCharset, length)
}

func randomFrom(set string, length int) string {
	randMu.Lock()
	defer randMu.Unlock()
	b := make([]byte, length)
	for i := range b {
		b[i] = set[randGenerator.Intn(len(set))]
	}
	return string(b)
}
