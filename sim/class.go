// Defines the closed set of destination classes a payload can be routed to.
// The five named classes map one-to-one onto receiver endpoints; Unresolved
// is the distinguished value the classifier reports when it cannot commit
// to any of them.

package sim

import "fmt"

// Class identifies one destination class.
type Class int

const (
	ClassMessi Class = iota
	ClassRonaldo
	ClassNeymar
	ClassMbappe
	ClassHaaland
	// ClassUnresolved marks a classification the backend could not resolve.
	// It never has a destination of its own.
	ClassUnresolved
)

// Classes lists the known destination classes in canonical order.
// ClassUnresolved is deliberately excluded.
var Classes = [...]Class{ClassMessi, ClassRonaldo, ClassNeymar, ClassMbappe, ClassHaaland}

var classNames = map[Class]string{
	ClassMessi:      "Messi",
	ClassRonaldo:    "Ronaldo",
	ClassNeymar:     "Neymar",
	ClassMbappe:     "Mbappe",
	ClassHaaland:    "Haaland",
	ClassUnresolved: "Unresolved",
}

// Known reports whether c is one of the fixed destination classes.
func (c Class) Known() bool {
	return c >= ClassMessi && c <= ClassHaaland
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// ParseClass maps a class name back to its Class value.
// An empty string parses to ClassUnresolved, which callers use as
// "no class configured" (e.g. an absent fallback).
func ParseClass(name string) (Class, error) {
	if name == "" {
		return ClassUnresolved, nil
	}
	for c, n := range classNames {
		if n == name {
			return c, nil
		}
	}
	return ClassUnresolved, fmt.Errorf("%w: %q", ErrUnknownClass, name)
}
