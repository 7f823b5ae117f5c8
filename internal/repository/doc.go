// Package repository defines the capability every version-control backend
// provides to reposync, and the Registry that turns a project's repository
// configuration into one instance per configured name.
//
// Backends are selected by the configuration's type field through a
// Factory. This package ships a dummy backend for tests and fixtures and a
// git backend built on go-git.
package repository
