// Package pages loads card content.
package pages

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/verte-zerg/greetcard/internal/model"
)

const separator = "---"

// Default returns the built-in card.
func Default() []model.Page {
	return []model.Page{
		{Title: "Happy Birthday!", Body: "A little card, made just for you."},
		{Title: "Another trip around the sun", Body: "Thank you for the laughter, the patience,\nand every late-night conversation."},
		{Title: "Wishing you", Body: "Good health, quiet mornings,\nloud celebrations and a year full of small wonders."},
		{Title: "Ready?", Body: "One more step and the party starts."},
	}
}

// Load reads pages from path. Pages are separated by a line containing only
// "---"; the first non-empty line of a page is its title.
func Load(path string) ([]model.Page, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only page file.
			_ = cerr
		}
	}()

	var (
		result []model.Page
		block  []string
	)
	flush := func() {
		if page, ok := parseBlock(block); ok {
			result = append(result, page)
		}
		block = block[:0]
	}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if strings.TrimSpace(line) == separator {
			flush()
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	if len(result) == 0 {
		return nil, fmt.Errorf("page file is empty")
	}
	return result, nil
}

func parseBlock(lines []string) (model.Page, bool) {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) {
		return model.Page{}, false
	}
	title := strings.TrimSpace(lines[start])
	body := strings.Trim(strings.Join(lines[start+1:], "\n"), "\n")
	return model.Page{Title: title, Body: body}, true
}
