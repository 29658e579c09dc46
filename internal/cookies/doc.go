// Package cookies extracts cookies from the stores of installed browsers:
// the SQLite databases of Firefox and the Chromium family, with values
// decrypted through the platform keyring, and Safari's binarycookies
// archive. Results are returned as credman jars so they can be merged,
// filtered for a URL or saved as a Netscape cookie file.
//
// Cookie values are never logged; diagnostics carry counts, names and paths.
package cookies
