package auditlog

import (
	"log"

	"github.com/Vaibhavsh0120/Connect2Give/pkg/models"
)

// LogPersister is implemented by the audit log repository. The indirection
// keeps handlers and services testable without a database.
type LogPersister interface {
	PersistLog(auditlog models.AuditLog, auditLogData interface{}) error
}

type Auditlog struct {
	r LogPersister
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

func NewAuditLog(repository LogPersister) *Auditlog {
	a := Auditlog{r: repository}

	return &a
}

// Log appends one audit entry. Callers run it in a goroutine; a failed
// append never fails the operation that produced it.
func (a *Auditlog) Log(action string, data interface{}, item Auditable, userID *int) {
	auditLog := item.CreateLogView()
	auditLog.Action = action
	auditLog.UserID = userID

	err := a.r.PersistLog(auditLog, data)

	if err != nil {
		log.Println("Unable to create AuditLog entry for id ", auditLog.ResourceID)
		return
	}
}
