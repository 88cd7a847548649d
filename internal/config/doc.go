// Package config provides configuration loading, merging, and validation
// for the sync engine client and the reference server.
//
// Configuration is assembled from several sources; a field set by an earlier
// source wins over later ones:
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file (named by CONFIG or -c)
//  4. Built-in defaults
//
// The main entry points are [GetClientConfig] for the engine and
// [GetServerConfig] for the reference server.
package config
