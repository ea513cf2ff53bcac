package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"schoolrecords/internal/account"
	"schoolrecords/internal/database"
	"schoolrecords/internal/enrollment"
	"schoolrecords/internal/entity"
	"schoolrecords/internal/roster"
)

var migrateTo uint

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("to") {
			return database.MigrateTo(cmd.Context(), cfg.Database, logger, migrateTo)
		}
		return database.Migrate(cmd.Context(), cfg.Database, logger)
	},
}

var (
	personFirst    string
	personLast     string
	personGender   string
	personPassword string
	personClasses  string

	studentGrade   int16
	studentSection string

	teacherSubject string
	teacherHOD     bool
)

func addPersonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&personFirst, "first", "", "first name")
	cmd.Flags().StringVar(&personLast, "last", "", "last name")
	cmd.Flags().StringVar(&personGender, "gender", "", "male or female")
	cmd.Flags().StringVar(&personPassword, "password", "", "initial password")
	for _, name := range []string{"first", "last", "gender", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Student accounts",
}

var studentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a student account",
	Example: `  records student add --first Anshuman --last Medhi --gender male \
    --grade 11 --section B --classes "C1 - English SL, C2 - Math HL" --password 2cool4uuu`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gender, ok := entity.ParseGender(personGender)
		if !ok {
			return fmt.Errorf("invalid gender %q", personGender)
		}
		section := []rune(strings.TrimSpace(studentSection))
		if len(section) != 1 {
			return fmt.Errorf("section must be one character, got %q", studentSection)
		}
		classes, err := enrollment.New(enrollment.Strict).DecodeStudent(personClasses, studentGrade)
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			id, err := a.manager.InsertStudent(cmd.Context(), account.StudentRequest{
				FirstName: personFirst,
				LastName:  personLast,
				Gender:    gender,
				Classes:   classes,
				Grade:     studentGrade,
				Section:   section[0],
				Password:  personPassword,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created student %d (%s)\n", id, entity.Username(personFirst, personLast))
			return nil
		})
	},
}

var teacherCmd = &cobra.Command{
	Use:   "teacher",
	Short: "Teacher accounts",
}

var teacherAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a teacher account",
	Example: `  records teacher add --first Hari --last Prasad --gender male \
    --subject Economics --classes "C1 11, C4 12" --hod --password killthelion`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gender, ok := entity.ParseGender(personGender)
		if !ok {
			return fmt.Errorf("invalid gender %q", personGender)
		}
		subject, ok := entity.ParseSubject(teacherSubject)
		if !ok {
			return fmt.Errorf("unknown subject %q (one of %v)", teacherSubject, entity.Subjects())
		}
		fullName := entity.Person{FirstName: personFirst, LastName: personLast}.FullName()
		classes, err := enrollment.New(enrollment.Strict).DecodeTeacher(personClasses, subject, fullName)
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			id, err := a.manager.InsertTeacher(cmd.Context(), account.TeacherRequest{
				FirstName: personFirst,
				LastName:  personLast,
				Gender:    gender,
				Subject:   subject,
				Classes:   classes,
				HOD:       teacherHOD,
				Password:  personPassword,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created teacher %d (%s)\n", id, entity.Username(personFirst, personLast))
			return nil
		})
	},
}

var (
	loginPassword string
	newPassword   string
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Check a username and password and print the account ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			id, err := a.manager.Login(cmd.Context(), args[0], loginPassword)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <username>",
	Short: "Log in and print the full account record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			person, err := a.manager.LoginProfile(cmd.Context(), args[0], loginPassword)
			if err != nil {
				return err
			}
			printPerson(cmd.OutOrStdout(), person)
			return nil
		})
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd <username>",
	Short: "Change a password, given the current one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.manager.ChangePassword(cmd.Context(), args[0], loginPassword, newPassword); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "password changed")
			return nil
		})
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username>",
	Short: "Set a password without the current one (every account with that username)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			n, err := a.manager.ResetPassword(cmd.Context(), args[0], newPassword)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password reset for %d account(s)\n", n)
			return nil
		})
	},
}

var clearConfirmed bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every account and reset the counter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearConfirmed {
			return errors.New("refusing to clear without --yes")
		}
		return withApp(cmd.Context(), func(a *app) error {
			if err := a.manager.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all accounts deleted")
			return nil
		})
	},
}

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Print account totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			c := a.manager.Counts()
			fmt.Fprintf(cmd.OutOrStdout(), "users\t%d\nstudents\t%d\nteachers\t%d\n", c.Users, c.Students, c.Teachers)
			return nil
		})
	},
}

var importWorkers int

var importCmd = &cobra.Command{
	Use:   "import <roster.xlsx>",
	Short: "Create accounts from a spreadsheet roster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		return withApp(cmd.Context(), func(a *app) error {
			entries, readErr := roster.Read(f, a.codec)
			if readErr != nil && len(entries) == 0 {
				return readErr
			}
			out := cmd.OutOrStdout()
			if readErr != nil {
				fmt.Fprintf(out, "skipped unreadable rows:\n%v\n", readErr)
			}

			res, err := roster.Import(cmd.Context(), a.manager, entries, importWorkers, logger)
			for _, failed := range res.Failed {
				fmt.Fprintln(out, failed)
			}
			fmt.Fprintf(out, "created %d account(s), %d failed\n", len(res.Created), len(res.Failed))
			return err
		})
	},
}

func init() {
	migrateCmd.Flags().UintVar(&migrateTo, "to", 0, "migrate up or down to this schema version instead of the latest")

	addPersonFlags(studentAddCmd)
	studentAddCmd.Flags().Int16Var(&studentGrade, "grade", 0, "grade level")
	studentAddCmd.Flags().StringVar(&studentSection, "section", "", "one-character section")
	studentAddCmd.Flags().StringVar(&personClasses, "classes", "", `classes as "C1 - English SL - Teacher, ..."`)
	_ = studentAddCmd.MarkFlagRequired("grade")
	_ = studentAddCmd.MarkFlagRequired("section")

	addPersonFlags(teacherAddCmd)
	teacherAddCmd.Flags().StringVar(&teacherSubject, "subject", "", fmt.Sprintf("subject taught, one of %v", entity.Subjects()))
	teacherAddCmd.Flags().StringVar(&personClasses, "classes", "", `classes as "C1 11, C4 12"`)
	teacherAddCmd.Flags().BoolVar(&teacherHOD, "hod", false, "head of department")
	_ = teacherAddCmd.MarkFlagRequired("subject")

	for _, cmd := range []*cobra.Command{loginCmd, profileCmd, passwdCmd} {
		cmd.Flags().StringVarP(&loginPassword, "password", "p", "", "current password")
		_ = cmd.MarkFlagRequired("password")
	}
	for _, cmd := range []*cobra.Command{passwdCmd, resetPasswordCmd} {
		cmd.Flags().StringVar(&newPassword, "new", "", "new password")
		_ = cmd.MarkFlagRequired("new")
	}

	clearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "confirm deleting every account")
	importCmd.Flags().IntVarP(&importWorkers, "workers", "w", roster.DefaultWorkers, "concurrent account creations")
}

func printPerson(w io.Writer, p *entity.Person) {
	fmt.Fprintf(w, "name\t%s\n", p.FullName())
	fmt.Fprintf(w, "username\t%s\n", p.Username())
	fmt.Fprintf(w, "gender\t%s\n", p.Gender)
	switch e := p.Enrollment.(type) {
	case entity.Student:
		fmt.Fprintf(w, "role\tstudent\n")
		fmt.Fprintf(w, "grade\t%d%c\n", e.Grade, e.Section)
		fmt.Fprintf(w, "classes\t%s\n", enrollment.EncodeStudent(e.Classes))
	case entity.Teacher:
		fmt.Fprintf(w, "role\tteacher\n")
		fmt.Fprintf(w, "subject\t%s\n", e.Subject)
		fmt.Fprintf(w, "hod\t%t\n", e.HOD)
		fmt.Fprintf(w, "classes\t%s\n", enrollment.EncodeTeacher(e.Classes))
	}
}
