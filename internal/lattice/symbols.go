package lattice

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// SymbolTable maps word ids to words, as read from a words.txt file with one
// "<word> <id>" pair per line.
type SymbolTable struct {
	words map[int]string
	ids   map[string]int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		words: make(map[int]string),
		ids:   make(map[string]int),
	}
}

// Add registers word under id. Both must be unique within the table.
func (t *SymbolTable) Add(word string, id int) error {
	if id < 0 {
		return fmt.Errorf("symbol %q: negative id %d", word, id)
	}
	if prev, ok := t.words[id]; ok {
		return fmt.Errorf("symbol id %d assigned to both %q and %q", id, prev, word)
	}
	if prev, ok := t.ids[word]; ok {
		return fmt.Errorf("symbol %q listed with ids %d and %d", word, prev, id)
	}
	t.words[id] = word
	t.ids[word] = id
	return nil
}

func (t *SymbolTable) Find(id int) (string, bool) {
	w, ok := t.words[id]
	return w, ok
}

func (t *SymbolTable) ID(word string) (int, bool) {
	id, ok := t.ids[word]
	return id, ok
}

func (t *SymbolTable) Len() int {
	return len(t.words)
}

// WordIDs returns every non-epsilon id in ascending order.
func (t *SymbolTable) WordIDs() []int {
	ids := make([]int, 0, len(t.words))
	for id := range t.words {
		if id != Epsilon {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// ReadSymbolTable parses the text symbol-table format. Blank lines are skipped.
func ReadSymbolTable(r io.Reader) (*SymbolTable, error) {
	t := NewSymbolTable()
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"<word> <id>\", got %q", lineNum, line)
		}
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: bad id %q: %w", lineNum, fields[1], err)
		}
		if err := t.Add(fields[0], id); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("symbol table is empty")
	}
	return t, nil
}

func LoadSymbolTable(path string) (*SymbolTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadSymbolTable(f)
}
