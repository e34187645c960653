package content

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// parseLines reads the line format `word[correct]rest, [opt1, opt2, ...]`.
// Blank lines and # comments are ignored; malformed lines are dropped.
func parseLines(data []byte) Result {
	var res Result
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		item, ok := ParseLine(line)
		if !ok {
			res.Dropped++
			continue
		}
		res.Items = append(res.Items, item)
	}
	if err := scanner.Err(); err != nil {
		// An over-long line stops the scan; what was read so far stays usable.
		res.Dropped++
	}
	return res
}

// ParseLine parses one line. The bracketed span inside the word is the
// answer; it is prepended to the options when missing.
func ParseLine(line string) (model.Item, bool) {
	comma := strings.Index(line, ",")
	if comma < 0 {
		return model.Item{}, false
	}
	word := strings.TrimSpace(line[:comma])
	rest := strings.TrimSpace(line[comma+1:])

	open := strings.Index(word, "[")
	end := strings.Index(word, "]")
	if open < 0 || end <= open+1 {
		return model.Item{}, false
	}
	prefix, correct, suffix := word[:open], word[open+1:end], word[end+1:]
	if strings.ContainsAny(suffix, "[]") || strings.Contains(word, Blank) {
		return model.Item{}, false
	}

	rest = strings.TrimSuffix(strings.TrimPrefix(rest, "["), "]")
	options := splitOptions(rest)
	if len(options) == 0 {
		return model.Item{}, false
	}
	answer := indexOf(options, correct)
	if answer < 0 {
		options = append([]string{correct}, options...)
		answer = 0
	}
	if len(options) < 2 {
		return model.Item{}, false
	}
	return newSpellingItem(prefix+Blank+suffix, prefix+correct+suffix, options, answer), true
}

func splitOptions(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" || indexOf(out, part) >= 0 {
			continue
		}
		out = append(out, part)
	}
	return out
}

func indexOf(options []string, s string) int {
	for i, opt := range options {
		if opt == s {
			return i
		}
	}
	return -1
}
