//go:build !race

package auth

const defaultBcryptCost = 12

func passwordHashCost() int {
	return defaultBcryptCost
}
