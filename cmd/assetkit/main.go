// Package main provides the assetkit CLI for loading, checking and running
// scripted 3D assets.
package main

func main() {
	Execute()
}
