package models

import (
	"fmt"
	"strings"
)

type EntityKind string

const (
	KindMovie EntityKind = "movie"
	KindShow  EntityKind = "show"
	KindGame  EntityKind = "game"
	KindBook  EntityKind = "book"
)

// AllEntityKinds returns every registered kind in a stable order.
func AllEntityKinds() []EntityKind {
	return []EntityKind{KindMovie, KindShow, KindGame, KindBook}
}

// entityTypeToKind maps both singular and plural URL labels to a kind.
// Built as an explicit table so route resolution never depends on
// registration order.
var entityTypeToKind = map[string]EntityKind{
	"movie":  KindMovie,
	"movies": KindMovie,
	"show":   KindShow,
	"shows":  KindShow,
	"game":   KindGame,
	"games":  KindGame,
	"book":   KindBook,
	"books":  KindBook,
}

// ParseEntityKind resolves a human-facing type label, plural or singular,
// to the concrete entity kind.
func ParseEntityKind(label string) (EntityKind, error) {
	kind, ok := entityTypeToKind[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, label)
	}
	return kind, nil
}

func (k EntityKind) String() string {
	return string(k)
}

func (k EntityKind) Plural() string {
	return string(k) + "s"
}

// Display returns the title-cased label used in exports and views.
func (k EntityKind) Display() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

func (k EntityKind) Valid() bool {
	switch k {
	case KindMovie, KindShow, KindGame, KindBook:
		return true
	}
	return false
}
