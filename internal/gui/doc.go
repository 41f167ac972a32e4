// Package gui renders a running cloth in a raylib window and provides the
// hidden GL context the opengl compute backend needs off screen. Build with
// -tags nogl to drop it.
package gui
