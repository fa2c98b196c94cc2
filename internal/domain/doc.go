// Package domain contains the core entities of the task tracker: users,
// tasks, and notification log records. Entities validate themselves and
// carry no persistence or transport concerns; those live in the store and
// platform packages.
package domain
