// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditMethod is called to log the audit trail of access-control
// decisions and job executions.
type AuditMethod interface {
	// Authorization logs an authorization check against a table ref.
	Authorization(ref string, p Permission, allowed bool)
	// Job logs a completed query or copy job.
	Job(jobID string, d time.Duration, err error)
}

// Audit wraps an Auth so every Allowed call is also sent to an
// AuditMethod.
type Audit struct {
	auth   Auth
	method AuditMethod
}

// NewAudit wraps auth so every Allowed call is also logged via method.
func NewAudit(auth Auth, method AuditMethod) Auth {
	return &Audit{auth: auth, method: method}
}

// Allowed implements Auth.
func (a *Audit) Allowed(p Permission, ref string) bool {
	ok := a.auth.Allowed(p, ref)
	a.method.Authorization(ref, p, ok)
	return ok
}

// NewAuditLog returns an AuditMethod that logs to l.
func NewAuditLog(l *logrus.Logger) AuditMethod {
	return &AuditLog{log: l.WithField("system", "audit")}
}

const auditLogMessage = "audit trail"

// AuditLog logs audit trails to a logrus.Logger.
type AuditLog struct {
	log *logrus.Entry
}

// Authorization implements AuditMethod.
func (a *AuditLog) Authorization(ref string, p Permission, allowed bool) {
	a.log.WithFields(logrus.Fields{
		"action":     "authorization",
		"ref":        ref,
		"permission": p.String(),
		"allowed":    allowed,
	}).Info(auditLogMessage)
}

// Job implements AuditMethod.
func (a *AuditLog) Job(jobID string, d time.Duration, err error) {
	fields := logrus.Fields{
		"action":   "job",
		"job_id":   jobID,
		"duration": d,
		"success":  err == nil,
	}
	if err != nil {
		fields["err"] = err
	}
	a.log.WithFields(fields).Info(auditLogMessage)
}
