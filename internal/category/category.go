// Package category stores the labels tasks are grouped under.
package category

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/store"
	"github.com/google/uuid"
)

// Key holds the category list.
const Key = "categories"

// Palette is offered when no color is given; new categories take the next
// unused entry.
var Palette = []string{
	"#ef4444", "#f97316", "#eab308", "#22c55e",
	"#06b6d4", "#3b82f6", "#8b5cf6", "#ec4899",
}

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidColor reports whether c is a #rrggbb color.
func ValidColor(c string) bool {
	return colorRe.MatchString(c)
}

// Repo reads and writes categories.
type Repo struct {
	store store.Store
}

// New creates a category repository.
func New(s store.Store) *Repo {
	return &Repo{store: s}
}

// List returns all categories in creation order.
func (r *Repo) List(ctx context.Context) ([]models.Category, error) {
	return store.Get[[]models.Category](ctx, r.store, Key)
}

// Add creates a category. An empty color picks from the palette.
func (r *Repo) Add(ctx context.Context, name, color string) (*models.Category, error) {
	cats, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if color == "" {
		color = nextColor(cats)
	}
	if !ValidColor(color) {
		return nil, fmt.Errorf("invalid color %q", color)
	}
	c := models.Category{ID: uuid.New().String(), Name: strings.TrimSpace(name), Color: strings.ToLower(color)}
	cats = append(cats, c)
	if err := store.Set(ctx, r.store, Key, cats); err != nil {
		return nil, fmt.Errorf("save categories: %w", err)
	}
	return &c, nil
}

// Delete removes a category. Tasks keep their now dangling reference.
func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	cats, err := r.List(ctx)
	if err != nil {
		return false, err
	}
	for i, c := range cats {
		if c.ID != id {
			continue
		}
		cats = append(cats[:i], cats[i+1:]...)
		if err := store.Set(ctx, r.store, Key, cats); err != nil {
			return false, fmt.Errorf("save categories: %w", err)
		}
		return true, nil
	}
	return false, nil
}

// Resolve finds a category by id or case-insensitive name.
func Resolve(cats []models.Category, ref string) (models.Category, bool) {
	for _, c := range cats {
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			return c, true
		}
	}
	return models.Category{}, false
}

func nextColor(cats []models.Category) string {
	used := make(map[string]bool, len(cats))
	for _, c := range cats {
		used[strings.ToLower(c.Color)] = true
	}
	for _, p := range Palette {
		if !used[p] {
			return p
		}
	}
	return Palette[len(cats)%len(Palette)]
}
