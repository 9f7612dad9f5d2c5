package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/recallbot/internal/database"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the catalog import configuration
type ImportConfig struct {
	FilePath          string // Path to the Excel or CSV file
	SubjectColumn     string // Column with the subject title
	LessonColumn      string // Column with the lesson title
	TopicColumn       string // Column with the topic title
	DescriptionColumn string // Column with the topic description
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SubjectColumn:     "A",
		LessonColumn:      "B",
		TopicColumn:       "C",
		DescriptionColumn: "D",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed  int
	SubjectsCreated int
	LessonsCreated  int
	TopicsCreated   int
	Skipped         int
	Errors          []string
}

// ImportCatalog imports the subject/lesson/topic catalog from an Excel or
// CSV file. Rows are (subject, lesson, topic, description); subjects and
// lessons are created on first sight.
func ImportCatalog(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		return importFromCSV(ctx, config)
	}

	return importFromExcel(ctx, config)
}

// importFromExcel imports catalog rows from an Excel file
func importFromExcel(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	result := &ImportResult{Errors: make([]string, 0)}

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	importer := newCatalogImporter()

	columns := []string{config.SubjectColumn, config.LessonColumn, config.TopicColumn, config.DescriptionColumn}
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}

		result.TotalProcessed++

		values := make([]string, len(columns))
		for j, col := range columns {
			idx, err := excelize.ColumnNameToNumber(col)
			if err != nil {
				return nil, fmt.Errorf("invalid column %q: %v", col, err)
			}
			if idx-1 < len(row) {
				values[j] = strings.TrimSpace(row[idx-1])
			}
		}

		if err := importer.processRow(ctx, values, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}

	return result, nil
}

// importFromCSV imports catalog rows from a CSV file
func importFromCSV(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	importer := newCatalogImporter()

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}

		rowNum++

		// Skip header rows
		if rowNum < config.StartRow {
			continue
		}

		result.TotalProcessed++

		values := make([]string, 4)
		for j := 0; j < 4 && j < len(row); j++ {
			values[j] = strings.TrimSpace(strings.Trim(row[j], "\""))
		}

		if err := importer.processRow(ctx, values, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}

	return result, nil
}

// catalogImporter caches catalog lookups across rows of one import.
type catalogImporter struct {
	catalog  *database.CatalogRepository
	subjects map[string]string // lowercase subject title -> id
	lessons  map[string]string // subject id + lowercase lesson title -> id
	position map[string]int    // next lesson position per subject id
}

func newCatalogImporter() *catalogImporter {
	return &catalogImporter{
		catalog:  database.NewCatalogRepository(),
		subjects: make(map[string]string),
		lessons:  make(map[string]string),
		position: make(map[string]int),
	}
}

func (c *catalogImporter) processRow(ctx context.Context, values []string, result *ImportResult) error {
	subjectTitle, lessonTitle, topicTitle, description := values[0], values[1], values[2], values[3]

	if subjectTitle == "" || lessonTitle == "" || topicTitle == "" {
		result.Skipped++
		return nil
	}

	subjectID, err := c.ensureSubject(ctx, subjectTitle, result)
	if err != nil {
		return err
	}

	lessonID, err := c.ensureLesson(ctx, subjectID, lessonTitle, result)
	if err != nil {
		return err
	}

	existing, err := c.catalog.GetTopicByTitle(ctx, lessonID, topicTitle)
	if err != nil {
		return err
	}
	if existing != nil {
		result.Skipped++
		return nil
	}

	if _, err := c.catalog.CreateTopic(ctx, lessonID, topicTitle, description); err != nil {
		return err
	}
	result.TopicsCreated++
	return nil
}

func (c *catalogImporter) ensureSubject(ctx context.Context, title string, result *ImportResult) (string, error) {
	key := strings.ToLower(title)
	if id, ok := c.subjects[key]; ok {
		return id, nil
	}

	existing, err := c.catalog.GetSubjectByTitle(ctx, title)
	if err != nil {
		return "", err
	}
	if existing != nil {
		c.subjects[key] = existing.ID
		return existing.ID, nil
	}

	id, err := c.catalog.CreateSubject(ctx, title, "")
	if err != nil {
		return "", err
	}
	c.subjects[key] = id
	result.SubjectsCreated++
	return id, nil
}

func (c *catalogImporter) ensureLesson(ctx context.Context, subjectID, title string, result *ImportResult) (string, error) {
	key := subjectID + "/" + strings.ToLower(title)
	if id, ok := c.lessons[key]; ok {
		return id, nil
	}

	existing, err := c.catalog.GetLessonByTitle(ctx, subjectID, title)
	if err != nil {
		return "", err
	}
	if existing != nil {
		c.lessons[key] = existing.ID
		return existing.ID, nil
	}

	id, err := c.catalog.CreateLesson(ctx, subjectID, title, "", c.position[subjectID])
	if err != nil {
		return "", err
	}
	c.lessons[key] = id
	c.position[subjectID]++
	result.LessonsCreated++
	return id, nil
}
