package models

import "time"

// AuditEvent is a security-relevant event stored in MongoDB.
// Meta must never carry password material.
type AuditEvent struct {
	ID         string            `json:"id"                  bson:"_id"`
	Action     string            `json:"action"              bson:"action"`
	AccountID  int64             `json:"accountId,omitempty" bson:"account_id,omitempty"`
	Username   string            `json:"username,omitempty"  bson:"username,omitempty"`
	RemoteAddr string            `json:"remoteAddr"          bson:"remote_addr"`
	UserAgent  string            `json:"userAgent"           bson:"user_agent"`
	Meta       map[string]string `json:"meta,omitempty"      bson:"meta,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"           bson:"created_at"`
}
