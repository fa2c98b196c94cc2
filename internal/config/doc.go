// Package config defines the application configuration structure and the
// logic for loading it from environment variables and config files.
//
// All three service binaries share one Config shape: the auth server uses
// the Server, Database, and Auth sections; the task server additionally
// uses Broker; the notification worker uses Broker and Consumer. Keeping a
// single shape means the shared settings (the JWT secret, the broker
// target, the queue name) are spelled identically everywhere, which is the
// contract that makes local token verification and the event pipeline work.
package config
