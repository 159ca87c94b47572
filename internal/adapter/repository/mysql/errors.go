package mysql

import (
	"context"
	"errors"
	"fmt"

	"loan-workflow-engine/internal/domain/uow"

	mysqldrv "github.com/go-sql-driver/mysql"
)

const (
	erLockWaitTimeout = 1205
	erLockDeadlock    = 1213
)

// lockErr maps lock wait timeouts and deadlocks to uow.ErrLockTimeout.
func lockErr(err error) error {
	if err == nil {
		return nil
	}
	var me *mysqldrv.MySQLError
	if errors.As(err, &me) && (me.Number == erLockWaitTimeout || me.Number == erLockDeadlock) {
		return fmt.Errorf("%w: %s", uow.ErrLockTimeout, me.Message)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", uow.ErrLockTimeout, err)
	}
	return err
}
