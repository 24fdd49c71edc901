// version.go - Versions-Information
package version

// Version wird beim Release-Build ueberschrieben
var Version = "0.0.0"
