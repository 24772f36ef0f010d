package schema

import (
	"time"

	"kadha/pkg/narrative"
)

// Book is the top-level unit a story arc belongs to.
type Book struct {
	ID            string    `json:"id" gorm:"primaryKey;size:27"`
	Title         string    `json:"title" gorm:"size:255"`
	Premise       string    `json:"premise" gorm:"type:text"`
	Genres        []string  `json:"genres" gorm:"type:text;serializer:json"`
	Setting       string    `json:"setting"`
	Theme         string    `json:"theme"`
	POV           string    `json:"pov" gorm:"column:pov"`
	DialogueStyle string    `json:"dialogue_style"`
	Tone          string    `json:"tone"`
	TotalParts    int       `json:"total_parts"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Character is generated from the book premise.
type Character struct {
	ID          uint      `json:"id,omitempty" gorm:"primaryKey" jsonschema:"-"`
	BookID      string    `json:"book_id,omitempty" gorm:"index;size:27" jsonschema:"-"`
	Name        string    `json:"name" jsonschema_description:"Character name in Malayalam"`
	Nickname    string    `json:"nickname" jsonschema_description:"Nickname, or an empty string if none"`
	Role        string    `json:"role" jsonschema_description:"Story role (e.g. Protagonist, Friend, Villain)"`
	Connections []string  `json:"connections" gorm:"type:text;serializer:json" jsonschema_description:"One-line relationships with other characters (e.g. Hari is Rekha's brother)"`
	CreatedAt   time.Time `json:"created_at,omitzero" jsonschema:"-"`
}

// CharacterList is the structured output requested when generating characters.
type CharacterList struct {
	Characters []Character `json:"characters" jsonschema_description:"Four to six main characters of the story"`
}

// Part is one installment of the story, unique per (book, part number).
type Part struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	BookID      string    `json:"book_id" gorm:"size:27;not null;uniqueIndex:idx_part_book_number"`
	PartNumber  int       `json:"part_number" gorm:"not null;uniqueIndex:idx_part_book_number"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary" gorm:"type:text"`
	Content     string    `json:"content" gorm:"type:text"`
	Personality string    `json:"personality"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Personalities are the writing styles a part can ask for.
var Personalities = []string{"poetic", "sarcastic", "descriptive", "fast-paced", "philosophical"}

// Context is the metadata summary prompts are conditioned on.
func (b *Book) Context() narrative.BookContext {
	return narrative.BookContext{
		Premise:       b.Premise,
		Genres:        b.Genres,
		Setting:       b.Setting,
		Theme:         b.Theme,
		POV:           b.POV,
		DialogueStyle: b.DialogueStyle,
	}
}
