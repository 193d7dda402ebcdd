package appconfig

import "path/filepath"

// Favorite is a bookmarked directory.
type Favorite struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// FavoriteStore persists bookmarked directories to favorites.json.
type FavoriteStore struct {
	path      string
	favorites []Favorite
}

// NewFavoriteStore loads (or initializes) the store under dir.
func NewFavoriteStore(dir string) (*FavoriteStore, error) {
	s := &FavoriteStore{path: filepath.Join(dir, "favorites.json")}
	if _, err := loadJSON(s.path, &s.favorites); err != nil {
		return nil, err
	}
	return s, nil
}

// All returns the favorites in saved order.
func (s *FavoriteStore) All() []Favorite {
	return s.favorites
}

// Add appends a favorite. Re-adding an existing path updates its name
// in place instead of duplicating the entry.
func (s *FavoriteStore) Add(name, path string) error {
	for i, fav := range s.favorites {
		if fav.Path == path {
			s.favorites[i].Name = name
			return s.save()
		}
	}
	s.favorites = append(s.favorites, Favorite{Name: name, Path: path})
	return s.save()
}

// Remove drops the favorite with the given path, if present.
func (s *FavoriteStore) Remove(path string) error {
	kept := s.favorites[:0]
	for _, fav := range s.favorites {
		if fav.Path != path {
			kept = append(kept, fav)
		}
	}
	s.favorites = kept
	return s.save()
}

func (s *FavoriteStore) save() error {
	return saveJSON(s.path, s.favorites)
}
