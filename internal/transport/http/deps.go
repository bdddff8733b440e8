package http

import (
	"github.com/turo-backend/internal/infrastructure/dynamo"
	jwtinfra "github.com/turo-backend/internal/infrastructure/jwt"
	"github.com/turo-backend/internal/infrastructure/mail"
	s3infra "github.com/turo-backend/internal/infrastructure/s3"
	snsinfra "github.com/turo-backend/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	OTPRepo      *dynamo.OTPRepo
	IdentityRepo *dynamo.IdentityRepo
	ProfileRepo  *dynamo.ProfileRepo
	ActivityRepo *dynamo.ActivityRepo
	S3Store      *s3infra.Store
	Mailer       mail.Sender
	// Publisher is optional; nil disables audit fan-out.
	Publisher   *snsinfra.ActivityPublisher
	JWTProvider *jwtinfra.Provider
}
