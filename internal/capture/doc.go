// Package capture finds recorded videos in the kiosk's capture directory.
//
// The recorder writes one file per session into a flat directory. Locator
// picks the most recently modified file with the configured extension and
// never modifies the directory's contents beyond creating it on startup.
package capture
