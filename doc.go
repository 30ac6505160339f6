// Package auth is the identity core of the catalog: it registers users,
// checks credentials and issues and verifies signed session tokens.
//
// Service:
//   - Service implements Authenticator over a UserRepository and a
//     PasswordHasher. Register and Authenticate return an AuthResult whose
//     token subject is the user id. VerifyToken reports every failure as
//     ErrInvalidToken.
//   - Authenticate answers an unknown email and a wrong password with the
//     same validation error and runs a password verification in both cases.
//
// Storage:
//   - BunUsers stores users with bun. The postgres and memory packages
//     under repository provide pgx and in-process stores. Every store
//     reports a taken email as ErrDuplicateEmail from Create.
//
// Activity sinks:
//   - ActivitySink receives register and login events. Sinks run best-effort
//     (errors are logged) and never see passwords or hashes.
//
// Claims decoration:
//   - ClaimsDecorator is invoked before tokens are signed. Decorators may add
//     Metadata while identity claims (sub, userId, iss, aud, exp, etc.) remain
//     immutable.
package auth
