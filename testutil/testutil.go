// Package testutil wires an in-memory database, config and media store for tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"lms/config"
	"lms/database"
	"lms/models"
	courseModels "lms/models/course"
	"lms/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const Password = "password123"

// SetupDB installs a fresh in-memory sqlite database as database.Database and a test config.
func SetupDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	config.AppConfig = &config.Config{
		AppEnv:                  "test",
		DBDriver:                "sqlite",
		JWTKey:                  "test-secret",
		SessionTTLHours:         1,
		SaltRound:               bcrypt.MinCost,
		AllowedOrigins:          "http://localhost:5173",
		MediaMaxUploadMB:        5,
		MediaCleanupMaxAttempts: 3,
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.RunMigrations(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	database.Database = database.DbInstance{Db: db}
	return db
}

// SeedUser creates a user with Password as its password.
func SeedUser(tb testing.TB, db *gorm.DB, role, email string) *models.User {
	tb.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		tb.Fatalf("hash: %v", err)
	}
	u := &models.User{Name: "User " + email, Email: email, Role: role, Password: string(hashed)}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedHierarchy creates one university → college → department → level chain.
func SeedHierarchy(tb testing.TB, db *gorm.DB) *models.Level {
	tb.Helper()
	uni := &models.University{Name: "Cairo University"}
	must(tb, db.Create(uni).Error)
	college := &models.College{Name: "Engineering", UniversityID: uni.ID}
	must(tb, db.Create(college).Error)
	dept := &models.Department{Name: "Computer", CollegeID: college.ID}
	must(tb, db.Create(dept).Error)
	level := &models.Level{Name: "Level 1", DepartmentID: dept.ID}
	must(tb, db.Create(level).Error)
	return level
}

func SeedCourse(tb testing.TB, db *gorm.DB, levelID, teacherID uint, title string) *courseModels.Course {
	tb.Helper()
	c := &courseModels.Course{Title: title, LevelID: levelID, TeacherID: teacherID, Status: courseModels.StatusDraft, Term: courseModels.TermFirst}
	must(tb, db.Create(c).Error)
	return c
}

// SeedChapters creates chapters titled by titles with positions 1..n.
func SeedChapters(tb testing.TB, db *gorm.DB, courseID uint, titles ...string) []courseModels.Chapter {
	tb.Helper()
	out := make([]courseModels.Chapter, 0, len(titles))
	for i, title := range titles {
		ch := courseModels.Chapter{CourseID: courseID, Title: title, Position: i + 1}
		must(tb, db.Create(&ch).Error)
		out = append(out, ch)
	}
	return out
}

// SeedLessons creates lessons titled by titles with positions 1..n.
func SeedLessons(tb testing.TB, db *gorm.DB, chapterID uint, titles ...string) []courseModels.Lesson {
	tb.Helper()
	out := make([]courseModels.Lesson, 0, len(titles))
	for i, title := range titles {
		l := courseModels.Lesson{ChapterID: chapterID, Title: title, Position: i + 1}
		must(tb, db.Create(&l).Error)
		out = append(out, l)
	}
	return out
}

func must(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatalf("seed: %v", err)
	}
}

// FakeStore is an in-memory storage.Store.
type FakeStore struct {
	mu         sync.Mutex
	Objects    map[string][]byte
	Deleted    []string
	FailDelete bool
	FailUpload bool
}

const FakeBaseURL = "https://media.test"

// UseFakeStore installs a FakeStore as storage.Media.
func UseFakeStore(tb testing.TB) *FakeStore {
	tb.Helper()
	s := &FakeStore{Objects: map[string][]byte{}}
	prev := storage.Media
	storage.Media = s
	tb.Cleanup(func() { storage.Media = prev })
	return s
}

func (s *FakeStore) Upload(_ context.Context, key, _ string, r io.Reader) (storage.Object, error) {
	if s.FailUpload {
		return storage.Object{}, fmt.Errorf("upload refused")
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return storage.Object{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = buf.Bytes()
	return storage.Object{Key: key, URL: FakeBaseURL + "/" + key}, nil
}

func (s *FakeStore) Delete(_ context.Context, key string) error {
	if s.FailDelete {
		return fmt.Errorf("delete refused")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	s.Deleted = append(s.Deleted, key)
	return nil
}

func (s *FakeStore) KeyFor(url string) (string, bool) {
	prefix := FakeBaseURL + "/"
	if len(url) > len(prefix) && url[:len(prefix)] == prefix {
		return url[len(prefix):], true
	}
	return "", false
}

// Put stores an object directly and returns its URL.
func (s *FakeStore) Put(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects[key] = []byte("seed")
	return FakeBaseURL + "/" + key
}

func (s *FakeStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}
