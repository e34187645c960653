package content

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"

	"github.com/verte-zerg/tuiquiz/internal/model"
)

// record is the JSON shape of a spelling item. Answer is optional when Full
// identifies exactly one option.
type record struct {
	Masked  string   `json:"masked"`
	Full    string   `json:"full"`
	Options []string `json:"options"`
	Answer  *int     `json:"answer"`
}

func parseJSONArray(data []byte) Result {
	var res Result
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		res.Dropped++
		return res
	}
	for _, msg := range raw {
		res.add(decodeRecord(msg))
	}
	return res
}

func parseNDJSON(data []byte) Result {
	var res Result
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		res.add(decodeRecord(line))
	}
	if err := scanner.Err(); err != nil {
		res.Dropped++
	}
	return res
}

func (r *Result) add(item model.Item, ok bool) {
	if !ok {
		r.Dropped++
		return
	}
	r.Items = append(r.Items, item)
}

func decodeRecord(msg []byte) (model.Item, bool) {
	var rec record
	if err := json.Unmarshal(msg, &rec); err != nil {
		return model.Item{}, false
	}
	return ValidateRecord(rec.Masked, rec.Full, rec.Options, rec.Answer)
}

// ValidateRecord checks a structured item. Masked must hold exactly one
// blank and there must be at least two options. When full is given, exactly
// one option must rebuild it and an explicit answer must agree; otherwise
// the explicit answer decides and full is rebuilt from it.
func ValidateRecord(masked, full string, options []string, answer *int) (model.Item, bool) {
	if strings.Count(masked, Blank) != 1 {
		return model.Item{}, false
	}
	opts := make([]string, 0, len(options))
	for _, opt := range options {
		opt = strings.TrimSpace(opt)
		if opt != "" {
			opts = append(opts, opt)
		}
	}
	if len(opts) < 2 {
		return model.Item{}, false
	}
	fill := func(opt string) string {
		return strings.Replace(masked, Blank, opt, 1)
	}

	if full == "" {
		if answer == nil || *answer < 0 || *answer >= len(opts) {
			return model.Item{}, false
		}
		return newSpellingItem(masked, fill(opts[*answer]), opts, *answer), true
	}

	match := -1
	for i, opt := range opts {
		if fill(opt) != full {
			continue
		}
		if match >= 0 {
			return model.Item{}, false
		}
		match = i
	}
	if match < 0 {
		return model.Item{}, false
	}
	if answer != nil && *answer != match {
		return model.Item{}, false
	}
	return newSpellingItem(masked, full, opts, match), true
}
