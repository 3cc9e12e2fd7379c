package main

import (
	"context"
	"fmt"
)

// addStaff updates or creates a staff member. Capabilities are only ever granted here, never revoked.
func (cli *commandLine) addStaff(email, pwd string, isTeacher, isSecretary bool) error {
	s, err := cli.staffSvc.UpdateOrCreate(context.Background(), email, pwd, isTeacher, isSecretary)
	if err != nil {
		return err
	}
	fmt.Printf("staff %q saved (teacher: %t, secretary: %t)\n", s.Email, s.IsTeacher, s.IsSecretary)
	return nil
}
