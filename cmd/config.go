package cmd

// KeyringEnv names the environment variable holding the default keyring.
const KeyringEnv = "WARPCOOKIE_KEYRING"

const DESCRIPTION = `
warpcookie reads the cookies of your installed browsers, decrypting
them with the same secrets the browser uses, and hands them to
command line tools as a Netscape cookie file or a Cookie header.
`

const (
	ExtractDescription = `The extract command loads cookies from one or more browsers
and from an existing cookie file, then writes them out in the
Netscape format understood by curl, wget and warpdl.

A browser is given as BROWSER[+KEYRING][:PROFILE][::CONTAINER].
KEYRING picks the Linux secret store, PROFILE is a profile name or
path and CONTAINER selects a Firefox container ("none" for cookies
outside every container).

Example:
        warpcookie extract --cookies-from-browser chrome
        warpcookie extract --cookies-from-browser firefox::Work -o cookies.txt
        warpcookie extract --cookies-from-browser chromium+KWALLET6:Default

`
	HeaderDescription = `The header command prints the Cookie header a browser would
send to the given url.

Example:
        warpcookie header --cookies-from-browser firefox https://example.com/
        warpcookie header --cookies cookies.txt --url https://example.com/

`
	ImportDescription = `The import command reads a cookie store file directly, whatever
browser wrote it. Firefox and Chromium databases, Safari
binarycookies and Netscape files are recognised.

Example:
        warpcookie import ~/backup/Cookies -o cookies.txt

`
	BrowsersDescription = `The browsers command lists the browsers cookies can be
extracted from.

Example:
        warpcookie browsers

`
)
