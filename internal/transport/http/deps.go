package http

import (
	"github.com/Ccreature09/poko-server/internal/infrastructure/dynamo"
	jwtinfra "github.com/Ccreature09/poko-server/internal/infrastructure/jwt"
	s3infra "github.com/Ccreature09/poko-server/internal/infrastructure/s3"
	"github.com/Ccreature09/poko-server/internal/infrastructure/smtp"
	"github.com/Ccreature09/poko-server/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router. The services
// behind the handlers each declare the narrow store interfaces they need;
// the concrete repos here satisfy them.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	SessionRepo      *dynamo.SessionRepo
	ClassRepo        *dynamo.ClassRepo
	SubjectRepo      *dynamo.SubjectRepo
	TimetableRepo    *dynamo.TimetableRepo
	AttendanceRepo   *dynamo.AttendanceRepo
	NotificationRepo *dynamo.NotificationRepo
	SettingsRepo     *dynamo.SettingsRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	Push             sns.PushSender
	JWTProvider      *jwtinfra.Provider
}
