package state

type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

func (m ThemeMode) Valid() bool {
	return m == ThemeLight || m == ThemeDark
}

type ThemeStore struct {
	s *store[ThemeMode]
}

func NewThemeStore() *ThemeStore {
	return &ThemeStore{s: newStore(ThemeLight)}
}

func (t *ThemeStore) Mode() ThemeMode {
	return t.s.get()
}

// Toggle flips between light and dark and returns the new mode.
func (t *ThemeStore) Toggle() ThemeMode {
	return t.s.update(func(m *ThemeMode) {
		if *m == ThemeDark {
			*m = ThemeLight
		} else {
			*m = ThemeDark
		}
	})
}

// Set applies mode; unknown modes fall back to light.
func (t *ThemeStore) Set(mode ThemeMode) ThemeMode {
	if !mode.Valid() {
		mode = ThemeLight
	}
	return t.s.update(func(m *ThemeMode) { *m = mode })
}

func (t *ThemeStore) OnChange(fn func(ThemeMode)) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.onChange = fn
}

func (t *ThemeStore) restore(mode ThemeMode) {
	if mode.Valid() {
		t.s.restore(mode)
	}
}
