package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// GLEIF golden copy column names.
const (
	ColLEI                = "LEI"
	ColLegalName          = "Entity.LegalName"
	ColEntityStatus       = "Entity.EntityStatus"
	ColJurisdiction       = "Entity.LegalJurisdiction"
	ColCity               = "Entity.LegalAddress.City"
	ColCountry            = "Entity.LegalAddress.Country"
	ColCategory           = "Entity.EntityCategory"
	ColRegistrationStatus = "Registration.RegistrationStatus"
	ColIndustryCode       = "IndustryCode"
	ColISIN               = "ISIN"
)

// CSVParser parses entity records from a GLEIF golden copy CSV.
// Only LEI and Entity.LegalName are required; other columns are optional and
// unknown columns are ignored.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed records.
func (p *CSVParser) Parse(r io.Reader) ([]RawEntity, error) {
	return collect(p, r)
}

// Stream reads CSV rows one at a time.
func (p *CSVParser) Stream(r io.Reader, fn func(RawEntity) error) error {
	reader := newReader(r)

	colIndex, err := readHeader(reader, ColLEI, ColLegalName)
	if err != nil {
		return err
	}

	lineNum := 1 // Header is line 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}

		raw := RawEntity{
			LEI:                getColumn(record, colIndex, ColLEI),
			LegalName:          getColumn(record, colIndex, ColLegalName),
			EntityStatus:       getColumn(record, colIndex, ColEntityStatus),
			RegistrationStatus: getColumn(record, colIndex, ColRegistrationStatus),
			Jurisdiction:       getColumn(record, colIndex, ColJurisdiction),
			City:               getColumn(record, colIndex, ColCity),
			Country:            getColumn(record, colIndex, ColCountry),
			Category:           getColumn(record, colIndex, ColCategory),
			IndustryCode:       getColumn(record, colIndex, ColIndustryCode),
			LineNum:            lineNum,
		}
		if raw.LEI == "" {
			continue
		}
		if err := fn(raw); err != nil {
			return err
		}
	}
}

// ISINMapParser parses ISIN,LEI mapping files as published by GLEIF.
type ISINMapParser struct{}

// Parse reads every mapping into memory.
func (p *ISINMapParser) Parse(r io.Reader) ([]RawISINMapping, error) {
	out := []RawISINMapping{}
	err := p.Stream(r, func(m RawISINMapping) error {
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stream calls fn for each mapping row. Rows missing either value are
// skipped.
func (p *ISINMapParser) Stream(r io.Reader, fn func(RawISINMapping) error) error {
	reader := newReader(r)

	colIndex, err := readHeader(reader, ColLEI, ColISIN)
	if err != nil {
		return err
	}

	lineNum := 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}

		m := RawISINMapping{
			ISIN:    getColumn(record, colIndex, ColISIN),
			LEI:     getColumn(record, colIndex, ColLEI),
			LineNum: lineNum,
		}
		if m.ISIN == "" || m.LEI == "" {
			continue
		}
		if err := fn(m); err != nil {
			return err
		}
	}
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true
	return reader
}

// readHeader reads the header row and checks required columns. Column
// names match case-insensitively.
func readHeader(reader *csv.Reader, required ...string) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimPrefix(col, "\ufeff")
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range required {
		if _, ok := colIndex[strings.ToLower(col)]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	return colIndex, nil
}

// getColumn safely retrieves a trimmed column value from a record.
func getColumn(record []string, colIndex map[string]int, col string) string {
	if idx, ok := colIndex[strings.ToLower(col)]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
