package tool

import (
	"fmt"
	"math/rand"
)

var adjectives = []string{
	"Adorable", "Bright", "Clever", "Cool", "Cute", "Fast", "Fresh", "Good",
	"Kind", "Lovely", "Mystic", "Neat", "Nice", "Secret", "Smart", "Solid",
	"Strong", "Tidy", "Wise",
}

var fruits = []string{
	"Apple", "Avocado", "Banana", "Cherry", "Coconut", "Grape", "Lemon", "Mango",
	"Melon", "Orange", "Papaya", "Peach", "Pear", "Pineapple", "Strawberry",
}

// NameGenerator returns a LocalSend style device alias, e.g. "Nice Orange".
func NameGenerator() string {
	adjective := adjectives[rand.Intn(len(adjectives))]
	fruit := fruits[rand.Intn(len(fruits))]
	return fmt.Sprintf("%s %s", adjective, fruit)
}
