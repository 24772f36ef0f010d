package workshop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"kadha/pkg/inference"
	"kadha/pkg/schema"
	"kadha/pkg/utils"
)

var ErrBadCharacters = errors.New("generator returned unusable characters")

func characterPrompt(book *schema.Book) string {
	return fmt.Sprintf(`Based on this Malayalam story premise:
%q

Generate a list of 4-6 characters with:
- Name
- Nickname (if any)
- Role (e.g. Protagonist, Friend, Villain)
- One-line relationships with others (e.g. Hari is Rekha's brother)

Respond in this JSON format:
{"characters": [
  { "name": "", "nickname": "", "role": "", "connections": ["", ""] }
]}
Output in JSON only.`, book.Premise)
}

// GenerateCharacters asks for the book's main characters in one call and replaces the stored cast.
func (s *Service) GenerateCharacters(ctx context.Context, bookID string) ([]schema.Character, error) {
	book, err := s.store.Book(ctx, bookID)
	if err != nil {
		return nil, err
	}

	prompt := characterPrompt(book)
	var raw string
	if jg, ok := s.gen.(inference.JSONGenerator); ok {
		raw, err = jg.GenerateJSON(ctx, prompt, schema.CharacterFormat())
	} else {
		raw, err = s.gen.Generate(ctx, prompt)
	}
	if err != nil {
		return nil, fmt.Errorf("generate characters: %w", err)
	}

	characters, err := parseCharacters(raw)
	if err != nil {
		log.Error("could not parse characters", "book", bookID, "raw", utils.LimitStr(raw, 200), "error", err)
		return nil, err
	}
	if err := s.store.ReplaceCharacters(ctx, bookID, characters); err != nil {
		return nil, err
	}
	log.Info("generated characters", "book", bookID, "count", len(characters))
	return characters, nil
}

// parseCharacters accepts either {"characters": [...]} or a bare array.
func parseCharacters(raw string) ([]schema.Character, error) {
	raw = utils.CleanJSON(raw)

	var characters []schema.Character
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &characters); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadCharacters, err)
		}
	} else {
		var list schema.CharacterList
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBadCharacters, err)
		}
		characters = list.Characters
	}

	out := characters[:0]
	for _, c := range characters {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			continue
		}
		if c.Connections == nil {
			c.Connections = []string{}
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no named characters", ErrBadCharacters)
	}
	return out, nil
}
