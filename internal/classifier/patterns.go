package classifier

import (
	"regexp"

	"github.com/praetor-hq/praetor/internal/model"
)

// patternRule is one structural detection pattern. The source string is
// what reports carry; sources shared with constitution principles dedupe
// against them by string equality.
type patternRule struct {
	src string
	typ model.ViolationType
	re  *regexp.Regexp
}

// pi builds a case-insensitive rule. Deterministic pattern matching — no
// ML, no heuristics.
func pi(src string, typ model.ViolationType) patternRule {
	return patternRule{src: src, typ: typ, re: regexp.MustCompile("(?i)" + src)}
}

// pc builds a case-sensitive rule, for credential formats whose case is
// part of the signature.
func pc(src string, typ model.ViolationType) patternRule {
	return patternRule{src: src, typ: typ, re: regexp.MustCompile(src)}
}

// inputPatterns match hostile phrasing arriving at an agent: injection,
// jailbreak, destructive commands, bypass and escalation attempts.
var inputPatterns = []patternRule{
	// Prompt injection: instruction override and prompt extraction.
	pi(`ignore (all )?(previous|prior) instructions`, model.ViolationPromptInjection),
	pi(`disregard (your|all|the|previous) (instructions|rules|guidelines)`, model.ViolationPromptInjection),
	pi(`forget (everything|all) (you were|you've been) told`, model.ViolationPromptInjection),
	pi(`reveal your system prompt`, model.ViolationPromptInjection),
	pi(`(show|print|repeat) (me )?(your|the) (system prompt|initial instructions)`, model.ViolationPromptInjection),
	pi(`new instructions? (override|supersede)`, model.ViolationPromptInjection),

	// Jailbreak personas and restriction-free roleplay.
	pi(`\bDAN mode\b`, model.ViolationJailbreak),
	pi(`developer mode enabled`, model.ViolationJailbreak),
	pi(`pretend (you are|you're) (unrestricted|free of (rules|restrictions))`, model.ViolationJailbreak),
	pi(`act as if you (have|had) no (restrictions|guidelines|rules)`, model.ViolationJailbreak),
	pi(`you are no longer (an? )?(ai|assistant|model)`, model.ViolationJailbreak),
	pi(`roleplay as .* without (limits|restrictions)`, model.ViolationJailbreak),

	// Destructive commands requested as input.
	pi(`rm\s+-rf\s+[/~]`, model.ViolationMaliciousCode),
	pi(`mkfs(\.\w+)?\s`, model.ViolationMaliciousCode),
	pi(`dd\s+if=/dev/(zero|random)`, model.ViolationMaliciousCode),
	pi(`chmod\s+(-r\s+)?777\s+/`, model.ViolationMaliciousCode),
	pi(`curl[^|\n]*\|\s*(sudo\s+)?(sh|bash)`, model.ViolationMaliciousCode),
	pi(`:\(\)\s*\{\s*:\|:&\s*\};\s*:`, model.ViolationMaliciousCode),

	// Security bypass: disabling the controls around the agent.
	pi(`(disable|turn off|bypass) (the )?(sandbox|guardrails?|security checks?|safety (filters?|controls?))`, model.ViolationSecurityBypass),
	pi(`(disable|turn off|silence) (the )?(audit|logging|monitoring)`, model.ViolationSecurityBypass),
	pi(`without (triggering|alerting) (the )?(monitor|audit|security)`, model.ViolationSecurityBypass),

	// Exfiltration requests.
	pi(`(send|upload|post|copy|forward) .*(credential|secret|api[ _-]?key|token|password)s? to`, model.ViolationDataExfiltration),
	pi(`exfiltrat(e|ing|ion)`, model.ViolationDataExfiltration),
	pi(`(upload|post|send) .* to (pastebin|an? (remote|external) (server|host))`, model.ViolationDataExfiltration),

	// Privilege escalation.
	pi(`\bsudo su\b`, model.ViolationPrivilegeEscalation),
	pi(`\bsetuid\b`, model.ViolationPrivilegeEscalation),
	pi(`grant (me |yourself )?(admin|root|superuser) (access|privileges|rights)`, model.ViolationPrivilegeEscalation),
	pi(`add .* to (the )?sudoers`, model.ViolationPrivilegeEscalation),

	// Code injection primitives.
	pi(`\beval\s*\(`, model.ViolationCodeInjection),
	pi(`\bexec\s*\(`, model.ViolationCodeInjection),
	pi(`__import__\s*\(`, model.ViolationCodeInjection),
	pi(`os\.system\s*\(`, model.ViolationCodeInjection),

	// Social engineering: pressure and impersonation. Unclassified
	// structurally — lands in the suspicious branch, not violation.
	pi(`(urgent|immediately).{0,40}(bypass|skip|ignore) (the )?(review|approval|checks?)`, model.ViolationSocialEngineering),
	pi(`(i am|this is) (your|the) (administrator|creator|developer)`, model.ViolationSocialEngineering),
	pi(`do not (tell|inform|alert) (anyone|the user|your operator)`, model.ViolationSocialEngineering),
}

// inputKeywords contribute keyword detections without structural weight.
var inputKeywords = []string{
	"jailbreak",
	"bypass restrictions",
	"ignore safety",
	"without detection",
	"hidden instruction",
	"override protocol",
	"no restrictions apply",
	"unfiltered response",
}

// outputPatterns match content an agent produced: leaked secrets,
// destructive commands, and harm walkthroughs.
var outputPatterns = []patternRule{
	// Credential material in produced text. Case matters for key formats.
	pc(`gsk_[a-zA-Z0-9]{20,}`, model.ViolationDataExfiltration),
	pc(`sk-[a-zA-Z0-9]{20,}`, model.ViolationDataExfiltration),
	pc(`sk-ant-[a-zA-Z0-9\-]{20,}`, model.ViolationDataExfiltration),
	pc(`ghp_[a-zA-Z0-9]{36}`, model.ViolationDataExfiltration),
	pc(`AKIA[0-9A-Z]{16}`, model.ViolationDataExfiltration),
	pc(`\b[a-f0-9]{64,}\b`, model.ViolationDataExfiltration),
	pi(`bearer\s+[a-zA-Z0-9\-_.]{20,}`, model.ViolationDataExfiltration),
	pc(`-----BEGIN (RSA |EC |OPENSSH )?PRIVATE KEY-----`, model.ViolationDataExfiltration),
	pi(`(password|passwd)\s*[:=]\s*\S{8,}`, model.ViolationDataExfiltration),

	// Destructive commands emitted for execution.
	pi(`rm\s+-rf\s+[/~]`, model.ViolationMaliciousCode),
	pi(`mkfs(\.\w+)?\s`, model.ViolationMaliciousCode),
	pi(`dd\s+if=/dev/(zero|random)`, model.ViolationMaliciousCode),
	pi(`chmod\s+(-r\s+)?777\s+/`, model.ViolationMaliciousCode),
	pi(`curl[^|\n]*\|\s*(sudo\s+)?(sh|bash)`, model.ViolationMaliciousCode),
	pi(`:\(\)\s*\{\s*:\|:&\s*\};\s*:`, model.ViolationMaliciousCode),

	// Harm walkthroughs. Unclassified structurally — suspicious branch.
	pi(`(first|then|next),? (disable|remove) (the )?(safety|security|monitoring)`, model.ViolationDangerousInstruction),
	pi(`here('s| is) how to (bypass|defeat|evade) (the )?(security|filter|detection)`, model.ViolationDangerousInstruction),
	pi(`step \d+[:.].{0,60}(disable|bypass).{0,60}(protection|safeguard|alarm)`, model.ViolationDangerousInstruction),
}

// outputKeywords contribute keyword detections without structural weight.
var outputKeywords = []string{
	"api key is",
	"access token:",
	"here are the credentials",
	"do not log this",
	"delete the audit trail",
}
