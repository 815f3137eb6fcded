// Package tabular построчные CSV-файлы с заголовком и терпимой схемой:
// отсутствующие колонки заполняются пустыми значениями, лишние игнорируются.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrCorrupt файл не разбирается как таблица.
var ErrCorrupt = errors.New("corrupt tabular file")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Column колонка схемы. Aliases: названия той же колонки в старых файлах.
type Column struct {
	Name    string
	Aliases []string
}

// Schema упорядоченный набор колонок.
type Schema []Column

// Names имена колонок для заголовка при записи.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Row строка, ключ: имя колонки схемы. Ключи есть для всех колонок схемы.
type Row map[string]string

// Read читает таблицу. Пустой поток: пустая таблица.
func Read(r io.Reader, schema Schema) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %v: %w", err, ErrCorrupt)
	}
	if len(header) > 0 {
		header[0] = string(bytes.TrimPrefix([]byte(header[0]), utf8BOM))
	}

	// позиция в файле -> имя колонки схемы; при повторе (новое имя и синоним) берётся первая колонка
	index := make(map[int]string)
	seen := make(map[string]bool)
	for i, h := range header {
		if name, ok := schema.match(h); ok && !seen[name] {
			index[i] = name
			seen[name] = true
		}
	}

	var rows []Row
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, ErrCorrupt)
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("line %d: %d fields, header has %d: %w", line, len(rec), len(header), ErrCorrupt)
		}
		if isBlank(rec) {
			continue
		}

		row := make(Row, len(schema))
		for _, c := range schema {
			row[c.Name] = ""
		}
		for i, v := range rec {
			if name, ok := index[i]; ok {
				row[name] = strings.TrimSpace(v)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile читает файл; отсутствующий файл: пустая таблица.
func ReadFile(path string, schema Schema) ([]Row, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := Read(f, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// Write пишет заголовок схемы и строки в порядке колонок.
func Write(w io.Writer, schema Schema, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.Names()); err != nil {
		return err
	}
	record := make([]string, len(schema))
	for _, row := range rows {
		for i, c := range schema {
			record[i] = row[c.Name]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile пишет во временный файл рядом и переименовывает: читатель видит либо старую, либо новую версию.
func WriteFile(path string, schema Schema, rows []Row) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint

	if err := Write(tmp, schema, rows); err != nil {
		tmp.Close() //nolint
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s Schema) match(header string) (string, bool) {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, c := range s {
		if strings.ToLower(c.Name) == h {
			return c.Name, true
		}
		for _, a := range c.Aliases {
			if strings.ToLower(a) == h {
				return c.Name, true
			}
		}
	}
	return "", false
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
