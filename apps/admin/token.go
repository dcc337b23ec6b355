package main

import (
	"errors"

	echoapi "github.com/trezcool/teampoints/apps/api/echo"
	"github.com/trezcool/teampoints/core"
)

var (
	errInvalidID   = errors.New("id must be a UUID")
	errInvalidRole = errors.New("role must be one of: instructor, student")
)

func (cli *commandLine) token(rawID, role, email string) error {
	id, ok := core.ParseID(rawID)
	if !ok {
		return errInvalidID
	}
	role = core.CleanString(role, true)
	if err := cli.validate.Var(role, "approle"); err != nil {
		return errInvalidRole
	}

	token, err := echoapi.GenerateToken(core.Caller{ID: id, Email: core.CleanString(email, true), Role: role}, cli.conf)
	if err != nil {
		return err
	}
	cli.printf("%s\n", token)
	return nil
}
