package utils

import (
	"lms/models"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// The Delete*Tx helpers remove a subtree of the academic hierarchy inside tx and
// return the media keys that must be deleted once tx commits.

func DeleteLessonsTx(tx *gorm.DB, lessonIDs []uint) ([]string, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}
	var keys []string
	if err := tx.Model(&courseModels.Lesson{}).Where("id IN ? AND attachment_key <> ''", lessonIDs).Pluck("attachment_key", &keys).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", lessonIDs).Delete(&courseModels.Lesson{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func DeleteChaptersTx(tx *gorm.DB, chapterIDs []uint) ([]string, error) {
	if len(chapterIDs) == 0 {
		return nil, nil
	}
	var lessonIDs []uint
	if err := tx.Model(&courseModels.Lesson{}).Where("chapter_id IN ?", chapterIDs).Pluck("id", &lessonIDs).Error; err != nil {
		return nil, err
	}
	keys, err := DeleteLessonsTx(tx, lessonIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", chapterIDs).Delete(&courseModels.Chapter{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func DeleteCoursesTx(tx *gorm.DB, courseIDs []uint) ([]string, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var keys []string
	if err := tx.Model(&courseModels.Course{}).Where("id IN ? AND image_key <> ''", courseIDs).Pluck("image_key", &keys).Error; err != nil {
		return nil, err
	}
	var chapterIDs []uint
	if err := tx.Model(&courseModels.Chapter{}).Where("course_id IN ?", courseIDs).Pluck("id", &chapterIDs).Error; err != nil {
		return nil, err
	}
	lessonKeys, err := DeleteChaptersTx(tx, chapterIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", courseIDs).Delete(&courseModels.Course{}).Error; err != nil {
		return nil, err
	}
	return append(keys, lessonKeys...), nil
}

func DeleteLevelsTx(tx *gorm.DB, levelIDs []uint) ([]string, error) {
	if len(levelIDs) == 0 {
		return nil, nil
	}
	var courseIDs []uint
	if err := tx.Model(&courseModels.Course{}).Where("level_id IN ?", levelIDs).Pluck("id", &courseIDs).Error; err != nil {
		return nil, err
	}
	keys, err := DeleteCoursesTx(tx, courseIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", levelIDs).Delete(&models.Level{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func DeleteDepartmentsTx(tx *gorm.DB, departmentIDs []uint) ([]string, error) {
	if len(departmentIDs) == 0 {
		return nil, nil
	}
	var levelIDs []uint
	if err := tx.Model(&models.Level{}).Where("department_id IN ?", departmentIDs).Pluck("id", &levelIDs).Error; err != nil {
		return nil, err
	}
	keys, err := DeleteLevelsTx(tx, levelIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", departmentIDs).Delete(&models.Department{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func DeleteCollegesTx(tx *gorm.DB, collegeIDs []uint) ([]string, error) {
	if len(collegeIDs) == 0 {
		return nil, nil
	}
	var departmentIDs []uint
	if err := tx.Model(&models.Department{}).Where("college_id IN ?", collegeIDs).Pluck("id", &departmentIDs).Error; err != nil {
		return nil, err
	}
	keys, err := DeleteDepartmentsTx(tx, departmentIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", collegeIDs).Delete(&models.College{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func DeleteUniversitiesTx(tx *gorm.DB, universityIDs []uint) ([]string, error) {
	if len(universityIDs) == 0 {
		return nil, nil
	}
	var collegeIDs []uint
	if err := tx.Model(&models.College{}).Where("university_id IN ?", universityIDs).Pluck("id", &collegeIDs).Error; err != nil {
		return nil, err
	}
	keys, err := DeleteCollegesTx(tx, collegeIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", universityIDs).Delete(&models.University{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
