// Package config loads the settings of the Veyra admin console.
//
// Sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. VEYRA_URL, VEYRA_USERNAME, VEYRA_PASSWORD, VEYRA_TIMEOUT, VEYRA_DB and
//     VEYRA_LOG_LEVEL, from the process environment or a .env file.
//  3. A JSON file selected with -c or -config:
//
//	{
//	  "base_url": "https://veyra.example.org",
//	  "username": "admin",
//	  "timeout": "45s",
//	  "db_path": "/var/lib/veyra/cli.db"
//	}
//
//  4. Flags: -a url, -u username, -t timeout seconds, -d db path, -l level.
//
// Passwords are never read from flags.
package config
