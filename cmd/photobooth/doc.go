// Command photobooth runs the kiosk delivery daemon and talks to it.
//
// "photobooth serve" starts the daemon. The remaining commands (send,
// status, still, latest) call the daemon's HTTP trigger API at api.bind,
// so the kiosk UI and an operator shell share one code path.
package main
