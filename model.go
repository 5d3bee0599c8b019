package main

import "go-previrt/iface"

// Component is one analysed package and the interface collected for it.
type Component struct {
	Path  string // import path
	Name  string
	Iface *iface.ComponentInterface
	Sites int // external call sites visited
}

// ExternalFunc is a function a component calls or references without
// defining it.
type ExternalFunc struct {
	FullName string // package.ReceiverType.Method or package.Func
	Arity    int    // including the receiver
	Declared bool   // bodiless declaration rather than a foreign function
}

// ResolvedCall is an external call site together with the rewrite a loaded
// transform selects for it.
type ResolvedCall struct {
	Site    string
	Caller  string
	Callee  string
	Rewrite iface.CallRewrite
	Args    []string // names of the gathered arguments
}
