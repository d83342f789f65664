package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wofa-ai/wofa/internal/backend"
	"github.com/wofa-ai/wofa/internal/store"
)

var (
	coursesLessons int
	coursesSelect  int
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Browse the course catalog",
	Long: `Courses lists what the tutoring service offers. Use --lessons to
show a course's lessons and --select to make a course active for
subsequent wofa ask and chat sessions.`,
	RunE: runCourses,
}

func init() {
	coursesCmd.Flags().IntVarP(&coursesLessons, "lessons", "l", 0, "show the lessons of course number N")
	coursesCmd.Flags().IntVarP(&coursesSelect, "select", "s", 0, "make course number N the active course")
	rootCmd.AddCommand(coursesCmd)
}

func runCourses(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	courses, err := a.client.Courses(ctx)
	if err != nil {
		if errors.Is(err, backend.ErrUnreachable) {
			return errors.New("unable to connect to WOFA AI")
		}
		return fmt.Errorf("loading courses: %w", err)
	}
	if len(courses) == 0 {
		fmt.Println("No courses are available yet.")
		return nil
	}

	if coursesSelect > 0 {
		return selectActiveCourse(cmd, a, courses, coursesSelect)
	}
	if coursesLessons > 0 {
		return printLessons(cmd, a, courses, coursesLessons)
	}

	fmt.Println("Courses:")
	for i, course := range courses {
		marker := " "
		if course.Title == a.sess.Course() {
			marker = "*"
		}
		fmt.Printf("%s %2d. %s\n", marker, i+1, course.Title)
	}
	fmt.Println("\nUse 'wofa courses --lessons N' to see lessons, '--select N' to pick one.")
	return nil
}

func pickCourse(courses []backend.Course, n int) (backend.Course, error) {
	if n < 1 || n > len(courses) {
		return backend.Course{}, fmt.Errorf("course number %d is out of range (1-%d): %w",
			n, len(courses), strconv.ErrRange)
	}
	return courses[n-1], nil
}

func selectActiveCourse(cmd *cobra.Command, a *app, courses []backend.Course, n int) error {
	ctx := cmd.Context()

	course, err := pickCourse(courses, n)
	if err != nil {
		return err
	}

	if err := a.store.Set(ctx, store.KeyActiveCourse, course.Title); err != nil {
		return fmt.Errorf("storing course choice: %w", err)
	}
	if err := a.store.Delete(ctx, store.KeyActiveLesson); err != nil {
		return fmt.Errorf("dropping stored lesson: %w", err)
	}

	fmt.Printf("Active course: %s\n", course.Title)
	return nil
}

func printLessons(cmd *cobra.Command, a *app, courses []backend.Course, n int) error {
	ctx := cmd.Context()

	course, err := pickCourse(courses, n)
	if err != nil {
		return err
	}

	lessons, err := a.client.Lessons(ctx, course.ID)
	if err != nil {
		if errors.Is(err, backend.ErrUnreachable) {
			return errors.New("unable to connect to WOFA AI")
		}
		return fmt.Errorf("loading lessons: %w", err)
	}
	if len(lessons) == 0 {
		fmt.Printf("The course %q has no lessons yet.\n", course.Title)
		return nil
	}

	fmt.Printf("Lessons in %s:\n", course.Title)
	for i, lesson := range lessons {
		fmt.Printf("  %2d. %s\n", i+1, lesson.Title)
	}
	return nil
}
