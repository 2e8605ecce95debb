// Package permission implements the shell command policy of spec §5:
// a denylist of destructive patterns, a list of probable long-running
// ("blocking") commands, and the workspace path-containment check used
// by both the shell tools and the Safe File Editor.
//
// Grounded on original_source/src/super_prompt/tools/shell.py's
// dangerous_commands / blocking_commands literals, carried over as the
// concrete instantiation spec §5 leaves to the implementer.
package permission

import "strings"

// DangerousPatterns are substrings that, if present anywhere in a
// command or script, cause immediate rejection without spawning a
// child process (spec §8 invariant 10).
var DangerousPatterns = []string{
	"rm -rf",
	"mkfs",
	" dd ",
	"dd if=",
	":(){:|:&};:",
	"fork bomb",
	">(", // process substitution into a device/redirect trick
	"/dev/sda",
	"mv / ",
	"chmod -R 777 /",
	"> /dev/sda",
}

// IsDangerous reports whether command matches the denylist.
func IsDangerous(command string) bool {
	for _, p := range DangerousPatterns {
		if strings.Contains(command, p) {
			return true
		}
	}
	return false
}

// BlockingPatterns name commands that start a server or another
// long-running/interactive process and will hang the agent if run in
// the foreground.
var BlockingPatterns = []string{
	"uvicorn", "gunicorn", "python -m http.server", "flask run", "django runserver",
	"npm start", "npm run dev", "yarn start", "yarn dev",
	"python app.py", "python main.py",
	"node server.js", "node app.js",
	"rails server", "rails s",
	"php -s", "php artisan serve",
	"jupyter notebook", "jupyter lab",
	"streamlit run",
	"gradle run", "mvn spring-boot:run",
}

// LooksBlocking reports whether command matches the probable-server
// pattern list.
func LooksBlocking(command string) bool {
	lower := strings.ToLower(command)
	for _, p := range BlockingPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// HasBackgroundForm reports whether command already launches in the
// background with its PID captured, i.e. the (nohup, &, echo $! > *.pid)
// triple spec §5 requires before a blocking-looking command is allowed.
func HasBackgroundForm(command string) bool {
	hasNohup := strings.Contains(strings.ToLower(command), "nohup")
	hasBackground := strings.Contains(command, "&")
	hasPIDSave := strings.Contains(command, "echo $!") && strings.Contains(command, ".pid")
	return hasNohup && hasBackground && hasPIDSave
}
