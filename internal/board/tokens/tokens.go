package tokens

// Token represents a named counter placed on a card.
type Token struct {
	Name  string
	Count int
}

// Copy creates a deep copy of the token.
func (t *Token) Copy() *Token {
	return &Token{
		Name:  t.Name,
		Count: t.Count,
	}
}

// Tokens manages the collection of token counters on a single card.
type Tokens struct {
	tokens map[string]*Token
}

// NewTokens creates an empty token collection.
func NewTokens() *Tokens {
	return &Tokens{
		tokens: make(map[string]*Token),
	}
}

// Modify adjusts the named counter by delta. The count is clamped at zero
// and a counter that reaches zero is removed from the collection.
// Returns the resulting count.
func (ts *Tokens) Modify(name string, delta int) int {
	if name == "" {
		return 0
	}
	token, ok := ts.tokens[name]
	if !ok {
		if delta <= 0 {
			return 0
		}
		ts.tokens[name] = &Token{Name: name, Count: delta}
		return delta
	}
	token.Count += delta
	if token.Count <= 0 {
		delete(ts.tokens, name)
		return 0
	}
	return token.Count
}

// Set overwrites the named counter to the given value. Values at or below
// zero clear the counter.
func (ts *Tokens) Set(name string, value int) int {
	if name == "" {
		return 0
	}
	if value <= 0 {
		delete(ts.tokens, name)
		return 0
	}
	ts.tokens[name] = &Token{Name: name, Count: value}
	return value
}

// Count returns the count of the named token, or zero if absent.
func (ts *Tokens) Count(name string) int {
	if token, ok := ts.tokens[name]; ok {
		return token.Count
	}
	return 0
}

// Has returns true if the card carries at least one token of the given name.
func (ts *Tokens) Has(name string) bool {
	return ts.Count(name) > 0
}

// Total returns the total number of tokens across all names.
func (ts *Tokens) Total() int {
	total := 0
	for _, token := range ts.tokens {
		total += token.Count
	}
	return total
}

// All returns a copy of every token in the collection.
func (ts *Tokens) All() map[string]*Token {
	result := make(map[string]*Token, len(ts.tokens))
	for name, token := range ts.tokens {
		result[name] = token.Copy()
	}
	return result
}

// Copy creates a deep copy of the collection.
func (ts *Tokens) Copy() *Tokens {
	cpy := NewTokens()
	for name, token := range ts.tokens {
		cpy.tokens[name] = token.Copy()
	}
	return cpy
}

// ToView converts the collection to the view format.
func (ts *Tokens) ToView() []TokenView {
	var views []TokenView
	for name, token := range ts.tokens {
		views = append(views, TokenView{
			Name:  name,
			Count: token.Count,
		})
	}
	return views
}

// TokenView represents a token counter in the view format.
type TokenView struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
