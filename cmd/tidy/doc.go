// Command tidy is the control CLI for the tidy daemon: lifecycle management,
// duplicate inspection and resolution, organize history, and configuration
// utilities.
package main
