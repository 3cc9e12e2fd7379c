package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/staff"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
	errNoDB = errors.New("migrations need the postgres engine")
)

type commandLine struct {
	db         *sql.DB // nil with the memory engine
	staffSvc   *staff.Service
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS]                     - run a goose command (up, down, status, redo, version...)")
	fmt.Println("  addstaff -email EMAIL [-secretary] [-teacher] - create a staff member or grant capabilities")
	fmt.Println("  resetpassword -email EMAIL                 - reset a staff member's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStaffCmd := flag.NewFlagSet("addstaff", flag.ExitOnError)
	addStaffEmail := addStaffCmd.String("email", "", "The staff member's email. The password will be prompted next.")
	addStaffSecretary := addStaffCmd.Bool("secretary", false, "Grant the secretary capability.")
	addStaffTeacher := addStaffCmd.Bool("teacher", false, "Grant the teacher capability.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The staff member's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addstaff":
		if err := addStaffCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStaffEmail == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(*addStaffEmail)
		if err != nil {
			return err
		}
		if pwd == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		return cli.addStaff(*addStaffEmail, pwd, *addStaffTeacher, *addStaffSecretary)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(*resetPasswordEmail)
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

// promptPassword reads a password from the terminal and checks it against the password policy.
func (cli *commandLine) promptPassword(email string) (string, error) {
	fmt.Print("Enter password:")
	raw, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	pwd := string(raw)
	if pwd == "" {
		return "", nil
	}

	check := staff.UpdateStaff{Email: &email, Password: pwd}
	if err = check.Validate(cli.validate); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for field, msg := range core.TranslateFields(vErrs, cli.translator) {
				return "", fmt.Errorf("%s: %s", field, msg)
			}
		}
		return "", err
	}
	return pwd, nil
}
