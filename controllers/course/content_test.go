package controllers_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"lms/models"
	courseModels "lms/models/course"
	"lms/testutil"
	"lms/testutil/apitest"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateChaptersAppend(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Appends")

	for i, title := range []string{"One", "Two", "Three"} {
		resp, env := f.tutor.JSON(http.MethodPost, "/admin/courses/"+id(course.ID)+"/chapters", map[string]string{"title": title})
		require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)
		var ch courseModels.Chapter
		env.Decode(t, &ch)
		assert.Equal(t, i+1, ch.Position)
	}
	assert.Equal(t, []string{"One", "Two", "Three"}, f.chapterTitles(t, course.ID))

	resp, _ := f.tutor.JSON(http.MethodPost, "/admin/courses/999/chapters", map[string]string{"title": "Lost"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, _ = f.tutor.JSON(http.MethodPost, "/admin/courses/"+id(course.ID)+"/chapters", map[string]string{"title": "  "})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestReorderChapters(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Reorder")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "A", "B", "C")
	path := "/admin/courses/" + id(course.ID) + "/chapters/order"

	resp, env := f.tutor.JSON(http.MethodPut, path, map[string][]uint{
		"ids": {chapters[1].ID, chapters[2].ID, chapters[0].ID},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)
	assert.Equal(t, []string{"B", "C", "A"}, f.chapterTitles(t, course.ID))

	var listed []courseModels.Chapter
	env.Decode(t, &listed)
	require.Len(t, listed, 3)
	assert.Equal(t, "B", listed[0].Title)
}

func TestReorderChaptersRejectsPartialOrders(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Reorder")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "A", "B", "C")
	other := f.course(t, "Other")
	foreign := testutil.SeedChapters(t, f.db, other.ID, "X")
	path := "/admin/courses/" + id(course.ID) + "/chapters/order"

	cases := map[string][]uint{
		"missing":   {chapters[0].ID, chapters[1].ID},
		"duplicate": {chapters[0].ID, chapters[0].ID, chapters[1].ID},
		"foreign":   {chapters[0].ID, chapters[1].ID, foreign[0].ID},
		"extra":     {chapters[0].ID, chapters[1].ID, chapters[2].ID, foreign[0].ID},
	}
	for name, ids := range cases {
		t.Run(name, func(t *testing.T) {
			resp, env := f.tutor.JSON(http.MethodPut, path, map[string][]uint{"ids": ids})
			require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
			var errs map[string]string
			env.Decode(t, &errs)
			assert.Contains(t, errs, "ids")
			assert.Equal(t, []string{"A", "B", "C"}, f.chapterTitles(t, course.ID))
		})
	}

	resp, _ := f.tutor.JSON(http.MethodPut, path, map[string][]uint{"ids": {}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestDeleteChapterCompactsSiblings(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Compact")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "A", "B", "C")
	lessons := testutil.SeedLessons(t, f.db, chapters[1].ID, "B1")
	f.store.Put("lessons/b1.pdf")
	require.NoError(t, f.db.Model(&lessons[0]).Update("attachment_key", "lessons/b1.pdf").Error)

	resp, _ := f.tutor.JSON(http.MethodDelete, "/admin/chapters/"+id(chapters[1].ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"A", "C"}, f.chapterTitles(t, course.ID))
	assert.False(t, f.store.Has("lessons/b1.pdf"))

	resp, _ = f.tutor.JSON(http.MethodDelete, "/admin/chapters/"+id(chapters[1].ID), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateAndListChapters(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Titles")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "Draft title")

	resp, env := f.tutor.JSON(http.MethodPut, "/admin/chapters/"+id(chapters[0].ID), map[string]string{"title": "Final title"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)

	resp, env = f.admin.JSON(http.MethodGet, "/admin/courses/"+id(course.ID)+"/chapters", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed []courseModels.Chapter
	env.Decode(t, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "Final title", listed[0].Title)
}

func TestChaptersOfForeignCourse(t *testing.T) {
	f := setup(t)
	other := testutil.SeedUser(t, f.db, models.RoleTeacher, "other@example.com")
	foreign := testutil.SeedCourse(t, f.db, f.level.ID, other.ID, "Theirs")
	chapters := testutil.SeedChapters(t, f.db, foreign.ID, "A")

	resp, _ := f.tutor.JSON(http.MethodPost, "/admin/courses/"+id(foreign.ID)+"/chapters", map[string]string{"title": "Mine"})
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = f.tutor.JSON(http.MethodDelete, "/admin/chapters/"+id(chapters[0].ID), nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	assert.Equal(t, []string{"A"}, f.chapterTitles(t, foreign.ID))
}

func TestCreateLessonWithAttachment(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Lessons")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "Intro")
	testutil.SeedLessons(t, f.db, chapters[0].ID, "Existing")

	resp, env := f.tutor.Multipart(http.MethodPost, "/admin/chapters/"+id(chapters[0].ID)+"/lessons", map[string][]string{
		"title":    {"Slides"},
		"videoUrl": {"https://videos.example.com/intro"},
	}, apitest.File{Field: "attachment", Name: "slides.pdf", Content: apitest.PDF})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)

	var lesson courseModels.Lesson
	env.Decode(t, &lesson)
	assert.Equal(t, 2, lesson.Position)
	assert.Equal(t, "https://videos.example.com/intro", lesson.VideoURL)
	assert.True(t, strings.HasPrefix(lesson.AttachmentKey, "lessons/"))
	assert.True(t, f.store.Has(lesson.AttachmentKey))

	resp, _ = f.tutor.JSON(http.MethodPost, "/admin/chapters/"+id(chapters[0].ID)+"/lessons", map[string]string{
		"title":    "Bad video",
		"videoUrl": "not a url",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestCreateLessonUploadFailure(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Lessons")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "Intro")
	f.store.FailUpload = true

	resp, _ := f.tutor.Multipart(http.MethodPost, "/admin/chapters/"+id(chapters[0].ID)+"/lessons", map[string][]string{
		"title": {"Slides"},
	}, apitest.File{Field: "attachment", Name: "slides.pdf", Content: apitest.PDF})
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Empty(t, f.lessonTitles(t, chapters[0].ID))
}

func TestUpdateLessonReplacesAttachment(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Lessons")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "Intro")
	lessons := testutil.SeedLessons(t, f.db, chapters[0].ID, "Slides")
	oldURL := f.store.Put("lessons/old.pdf")
	require.NoError(t, f.db.Model(&lessons[0]).Updates(map[string]interface{}{
		"attachment_url": oldURL, "attachment_key": "lessons/old.pdf",
	}).Error)

	resp, env := f.tutor.Multipart(http.MethodPut, "/admin/lessons/"+id(lessons[0].ID), map[string][]string{
		"description": {"Updated slides"},
	}, apitest.File{Field: "attachment", Name: "new.pdf", Content: apitest.PDF})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)

	var updated courseModels.Lesson
	env.Decode(t, &updated)
	assert.Equal(t, "Updated slides", updated.Description)
	assert.NotEqual(t, "lessons/old.pdf", updated.AttachmentKey)
	assert.True(t, f.store.Has(updated.AttachmentKey))
	assert.False(t, f.store.Has("lessons/old.pdf"))

	resp, _ = f.tutor.JSON(http.MethodPut, "/admin/lessons/"+id(lessons[0].ID), map[string]interface{}{
		"removeAttachment": true,
		"attachmentUrl":    "https://elsewhere.example.com/x.pdf",
	})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestLessonAttachmentURLMustBeHTTP(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Lessons")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "Intro")
	lessons := testutil.SeedLessons(t, f.db, chapters[0].ID, "Slides")

	resp, env := f.tutor.JSON(http.MethodPost, "/admin/chapters/"+id(chapters[0].ID)+"/lessons", map[string]string{
		"title":         "Unsafe",
		"attachmentUrl": "javascript:alert(1)",
	})
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
	var errs map[string]string
	env.Decode(t, &errs)
	assert.Contains(t, errs, "attachmentUrl")

	resp, _ = f.tutor.JSON(http.MethodPut, "/admin/lessons/"+id(lessons[0].ID), map[string]string{"attachmentUrl": "../x"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	assert.Equal(t, []string{"Slides"}, f.lessonTitles(t, chapters[0].ID))
}

func TestLessonNeverDeletesForeignMedia(t *testing.T) {
	f := setup(t)
	other := testutil.SeedUser(t, f.db, models.RoleTeacher, "other@example.com")
	foreign := testutil.SeedCourse(t, f.db, f.level.ID, other.ID, "Theirs")
	f.withImage(t, foreign, "courses/foreign.png")

	course := f.course(t, "Mine")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "Intro")

	resp, env := f.tutor.JSON(http.MethodPost, "/admin/chapters/"+id(chapters[0].ID)+"/lessons", map[string]string{
		"title":         "Borrowed",
		"attachmentUrl": foreign.ImageURL,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, env.Message)
	var lesson courseModels.Lesson
	env.Decode(t, &lesson)
	assert.Equal(t, foreign.ImageURL, lesson.AttachmentURL)
	assert.Empty(t, lesson.AttachmentKey)

	resp, _ = f.tutor.JSON(http.MethodPut, "/admin/lessons/"+id(lesson.ID), map[string]interface{}{"removeAttachment": true})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = f.tutor.JSON(http.MethodPut, "/admin/lessons/"+id(lesson.ID), map[string]interface{}{"attachmentUrl": foreign.ImageURL})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = f.tutor.JSON(http.MethodDelete, "/admin/lessons/"+id(lesson.ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.True(t, f.store.Has("courses/foreign.png"))
	assert.Empty(t, f.store.Deleted)
}

func TestUpdateLessonReportsReloadFailure(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Lessons")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "Intro")
	lessons := testutil.SeedLessons(t, f.db, chapters[0].ID, "Slides")

	// Every read after the first write of the request fails.
	failReads := false
	require.NoError(t, f.db.Callback().Update().After("gorm:update").Register("test:arm_read_failure", func(*gorm.DB) {
		failReads = true
	}))
	require.NoError(t, f.db.Callback().Query().Before("gorm:query").Register("test:fail_read", func(tx *gorm.DB) {
		if failReads {
			_ = tx.AddError(errors.New("connection reset"))
		}
	}))

	resp, env := f.tutor.JSON(http.MethodPut, "/admin/lessons/"+id(lessons[0].ID), map[string]string{"title": "Renamed"})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to fetch updated lesson!", env.Message)

	failReads = false
	assert.Equal(t, []string{"Renamed"}, f.lessonTitles(t, chapters[0].ID))
}

func TestReorderAndDeleteLessons(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Lessons")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "Intro")
	lessons := testutil.SeedLessons(t, f.db, chapters[0].ID, "1", "2", "3")
	path := "/admin/chapters/" + id(chapters[0].ID) + "/lessons/order"

	resp, _ := f.tutor.JSON(http.MethodPut, path, map[string][]uint{"ids": {lessons[2].ID, lessons[1].ID, lessons[0].ID}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"3", "2", "1"}, f.lessonTitles(t, chapters[0].ID))

	resp, _ = f.tutor.JSON(http.MethodPut, path, map[string][]uint{"ids": {lessons[2].ID}})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = f.tutor.JSON(http.MethodDelete, "/admin/lessons/"+id(lessons[1].ID), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"3", "1"}, f.lessonTitles(t, chapters[0].ID))

	resp, env := f.tutor.JSON(http.MethodGet, "/admin/chapters/"+id(chapters[0].ID)+"/lessons", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var listed []courseModels.Lesson
	env.Decode(t, &listed)
	require.Len(t, listed, 2)
	assert.Equal(t, "3", listed[0].Title)
}

func TestMoveLesson(t *testing.T) {
	f := setup(t)
	course := f.course(t, "Moves")
	chapters := testutil.SeedChapters(t, f.db, course.ID, "From", "To")
	from := testutil.SeedLessons(t, f.db, chapters[0].ID, "a", "b", "c")
	testutil.SeedLessons(t, f.db, chapters[1].ID, "x")

	resp, env := f.tutor.JSON(http.MethodPatch, "/admin/lessons/"+id(from[0].ID)+"/move", map[string]uint{"chapterId": chapters[1].ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, env.Message)

	var moved courseModels.Lesson
	env.Decode(t, &moved)
	assert.Equal(t, chapters[1].ID, moved.ChapterID)
	assert.Equal(t, 2, moved.Position)
	assert.Equal(t, []string{"b", "c"}, f.lessonTitles(t, chapters[0].ID))
	assert.Equal(t, []string{"x", "a"}, f.lessonTitles(t, chapters[1].ID))

	other := f.course(t, "Elsewhere")
	elsewhere := testutil.SeedChapters(t, f.db, other.ID, "Far")
	resp, _ = f.tutor.JSON(http.MethodPatch, "/admin/lessons/"+id(from[1].ID)+"/move", map[string]uint{"chapterId": elsewhere[0].ID})
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	resp, _ = f.tutor.JSON(http.MethodPatch, "/admin/lessons/"+id(from[1].ID)+"/move", map[string]uint{"chapterId": 9999})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
