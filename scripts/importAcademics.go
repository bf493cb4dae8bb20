package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/models"

	"gorm.io/gorm"
)

// Imports the academic hierarchy from a CSV of university,college,department,level rows.
// Existing nodes are matched by name (ignoring case) under the same parent, so the
// import can be re-run safely.
func main() {
	config.LoadConfig()
	if err := logger.Init(config.AppConfig.AppEnv); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()
	database.ConnectDb()

	path := "academics.csv"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Log.Fatal("Failed to open CSV file", "path", path, "error", err)
	}
	defer file.Close()

	stats, err := importAcademics(database.Database.Db, file)
	if err != nil {
		logger.Log.Fatal("Import failed", "error", err)
	}
	logger.Log.Info("Import completed",
		"rows", stats.rows,
		"created", stats.created,
		"skipped", stats.skipped,
	)
}

type importStats struct {
	rows    int
	created int
	skipped int
}

func importAcademics(db *gorm.DB, r io.Reader) (importStats, error) {
	var stats importStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return stats, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "university") {
		records = records[1:]
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for i, row := range records {
			stats.rows++
			fields := make([]string, 4)
			for j := 0; j < len(fields) && j < len(row); j++ {
				fields[j] = strings.Join(strings.Fields(row[j]), " ")
			}
			if fields[0] == "" {
				logger.Log.Warn("Skipping row without university", "row", i+1)
				stats.skipped++
				continue
			}

			uni := models.University{Name: fields[0]}
			if err := upsert(tx, &uni, "", 0, &stats); err != nil {
				return err
			}
			if fields[1] == "" {
				continue
			}
			college := models.College{Name: fields[1], UniversityID: uni.ID}
			if err := upsert(tx, &college, "university_id", uni.ID, &stats); err != nil {
				return err
			}
			if fields[2] == "" {
				continue
			}
			dept := models.Department{Name: fields[2], CollegeID: college.ID}
			if err := upsert(tx, &dept, "college_id", college.ID, &stats); err != nil {
				return err
			}
			if fields[3] == "" {
				continue
			}
			level := models.Level{Name: fields[3], DepartmentID: dept.ID}
			if err := upsert(tx, &level, "department_id", dept.ID, &stats); err != nil {
				return err
			}
		}
		return nil
	})
	return stats, err
}

// upsert loads the node with the same name under parentID into row, creating it when missing.
func upsert(tx *gorm.DB, row interface{ GetName() string }, parentCol string, parentID uint, stats *importStats) error {
	name := row.GetName()
	q := tx.Where("LOWER(name) = ?", strings.ToLower(name))
	if parentCol != "" {
		q = q.Where(parentCol+" = ?", parentID)
	}
	err := q.First(row).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err := tx.Create(row).Error; err != nil {
		return fmt.Errorf("create %q: %w", name, err)
	}
	stats.created++
	return nil
}
